package pollinations

// Version 是 SDK 版本号，随 User-Agent 一起上报。
const Version = "2.0.0"
