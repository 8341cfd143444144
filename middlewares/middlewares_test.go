package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAPIKeyMiddleware(t *testing.T) {
	r := newRouter(APIKeyMiddleware("s3cret"))

	tests := []struct {
		name     string
		key      string
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{name: "missing", wantCode: http.StatusUnauthorized, wantErr: CodeUnauthenticated, wantMsg: "Missing required x-api-key header"},
		{name: "invalid", key: "nope", wantCode: http.StatusUnauthorized, wantErr: CodeInvalidAPIKey, wantMsg: "Invalid API key provided"},
		{name: "valid", key: "s3cret", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			w := serve(r, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				body := decode(t, w)
				assert.Equal(t, false, body["status"])
				assert.Equal(t, tt.wantErr, body["code"])
				assert.Equal(t, tt.wantMsg, body["message"])
			}
		})
	}
}

func TestAPIKeyMiddlewareIgnoresQueryParam(t *testing.T) {
	r := newRouter(APIKeyMiddleware("s3cret"))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok?api_key=s3cret", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketAPIKeyMiddlewareAcceptsQueryParam(t *testing.T) {
	r := newRouter(WebSocketAPIKeyMiddleware("s3cret"))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok?api_key=s3cret", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/ok?api_key=wrong", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := newRouter(rl.RateLimit())

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"))
}

func TestLoggerMiddlewareRequestID(t *testing.T) {
	r := newRouter(LoggerMiddleware())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	r := newRouter(SecurityHeaders())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCORSMiddlewareAllowsAPIKeyHeader(t *testing.T) {
	r := newRouter(CORSMiddleware([]string{"https://chat.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "https://chat.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", APIKeyHeader)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://chat.example", w.Header().Get("Access-Control-Allow-Origin"))
}
