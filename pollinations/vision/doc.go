// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 vision 封装基于视觉模型的图像理解问答。

问答走 OpenAI 兼容的 chat 端点：问题是 text 片段，图像是
image_url 片段。图像来源可以是 http(s) 链接（[Service.Ask]），
也可以是本地文件（[Service.AskFile]）——本地文件会被解码探测
格式与尺寸（jpeg/png/gif/webp），通过校验后编码为 data URL 上传。
*/
package vision
