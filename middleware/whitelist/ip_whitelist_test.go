package whitelist

import (
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"newsfeed/middleware/router"
	"testing"
)

func do(allow []string, remote string) int {
	r := router.New()
	r.Group("").Use(IPWhiteList(allow)).POST("/news", func(c *router.Context) {
		c.Rw.WriteHeader(http.StatusAccepted)
	})
	req := httptest.NewRequest(http.MethodPost, "/news", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestIPWhiteList(t *testing.T) {
	allow := []string{"127.0.0.1", "192.168.0.107"}
	assert.Equal(t, http.StatusAccepted, do(allow, "127.0.0.1:5555"))
	assert.Equal(t, http.StatusForbidden, do(allow, "10.0.0.1:5555"))
	// 前缀相同也不放行
	assert.Equal(t, http.StatusForbidden, do(allow, "127.0.0.11:5555"))
	assert.Equal(t, http.StatusAccepted, do(nil, "10.0.0.1:5555"))
}
