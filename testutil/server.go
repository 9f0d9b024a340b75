// =============================================================================
// 🧪 伪 Pollinations 服务端
// =============================================================================
// 基于 httptest 的可编程伪服务端，图像与文本两个主机共用同一地址。
// 每个请求都会计数，便于断言缓存命中时没有发生网络调用。
// =============================================================================
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

// Server 是测试用的伪 Pollinations 服务端。
type Server struct {
	mux   *http.ServeMux
	httpS *httptest.Server
	calls atomic.Int64
}

// NewServer 启动伪服务端，测试结束时自动关闭。
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{mux: http.NewServeMux()}
	s.httpS = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.httpS.Close)
	return s
}

// URL 返回伪服务端地址。
func (s *Server) URL() string { return s.httpS.URL }

// Calls 返回累计收到的请求数。
func (s *Server) Calls() int64 { return s.calls.Load() }

// Handle 注册任意路径的处理函数。
func (s *Server) Handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, h)
}

// HandleChat 让 POST /openai 返回给定的 JSON 响应体。
func (s *Server) HandleChat(body []byte) {
	s.mux.HandleFunc("/openai", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})
}

// HandleChatStream 让 POST /openai 返回给定的 SSE 流。
func (s *Server) HandleChatStream(stream string) {
	s.mux.HandleFunc("/openai", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(stream))
	})
}

// HandleImage 让 /prompt/ 下的所有路径返回给定的图像字节。
func (s *Server) HandleImage(img []byte) {
	s.mux.HandleFunc("/prompt/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(img)
	})
}

// HandleText 让 GET /{prompt} 返回给定文本。注册为兜底路由，
// 需在其它 Handle* 之后调用也能共存。
func (s *Server) HandleText(text string) {
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(text))
	})
}

// HandleError 让给定路径按状态码返回错误体。
func (s *Server) HandleError(pattern string, status int, message string) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(ErrorJSON(message))
	})
}

// Client 构造指向伪服务端的底层客户端。
func (s *Server) Client(t *testing.T, opts ...pollinations.Option) *pollinations.Client {
	t.Helper()
	base := []pollinations.Option{
		pollinations.WithImageBase(s.httpS.URL),
		pollinations.WithTextBase(s.httpS.URL),
		pollinations.WithLogger(zap.NewNop()),
	}
	client, err := pollinations.NewClient(append(base, opts...)...)
	if err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}
