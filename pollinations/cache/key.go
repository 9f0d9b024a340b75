package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key 把请求的各个要素摘要成缓存键。
// 要素之间以 NUL 分隔，避免拼接歧义；取 sha256 前 16 字节。
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// URLKey 为 GET 型生成请求生成缓存键。
// 传入的 URL 必须已按规范序排好查询参数。
func URLKey(url string) string {
	return Key("GET", url)
}

// BodyKey 为 POST 型生成请求生成缓存键。
func BodyKey(endpoint string, body []byte) string {
	return Key("POST", endpoint, string(body))
}
