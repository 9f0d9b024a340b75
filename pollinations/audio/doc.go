// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 audio 封装 Pollinations 的语音合成与语音转写能力。

合成（TTS）走 GET 路径：文本进 URL，voice 与 model 进查询参数，
响应体是编码后的音频字节；[Service.SpeakToFile] 额外负责落盘。
转写（STT）复用 OpenAI 兼容的 chat 端点，音频以 base64 放进
input_audio 片段随消息上传。

声音目录见 [Voices]；未在目录中的 voice 会在发请求前被拦截。
*/
package audio
