// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 enhance 把简短的图像提示词改写成细节充分的版本。

核心抽象是 [Rewriter]：接收一条提示词，返回改写后的提示词。
[Chain] 按序执行多个改写器，任何一个失败则整体中断，用户可以把
自己的改写器与内置的 [Enhancer] 串在一起。

[Enhancer] 用文本生成服务本身做改写：固定一条推理型系统提示词，
要求模型补全构图、光线、材质与风格细节。[Style] 预设控制改写的
美术方向。

这是客户端增强。图像请求上的 Enhance 字段走的是服务端增强，
两者可以叠加但语义独立。
*/
package enhance
