package timerate

import (
	"fmt"
	"golang.org/x/time/rate"
	"net/http"
	"newsfeed/middleware/router"
)

// RateLimiter 发布接口限流
//	limit：每秒产生的 token 数
//	burst：最多存放的 token 数
// 取不到 token 时返回 429 并跳出中间件，onLimit 不为空时回调
func RateLimiter(limit float64, burst int, onLimit func()) router.HandlerFunc {
	l := rate.NewLimiter(rate.Limit(limit), burst)
	return func(c *router.Context) {
		if !l.Allow() {
			if onLimit != nil {
				onLimit()
			}
			c.Rw.Header().Set("Retry-After", "1")
			c.Error(http.StatusTooManyRequests, fmt.Sprintf("rate limit:%v, %v", l.Limit(), l.Burst()))
			return
		}
		c.Next()
	}
}
