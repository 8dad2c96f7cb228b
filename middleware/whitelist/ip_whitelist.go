package whitelist

import (
	"net"
	"net/http"
	"newsfeed/middleware/router"
)

// IPWhiteList 只允许列表中的客户端 IP 访问，列表为空时不限制
func IPWhiteList(allow []string) router.HandlerFunc {
	set := make(map[string]struct{}, len(allow))
	for _, ip := range allow {
		set[ip] = struct{}{}
	}
	return func(c *router.Context) {
		if len(set) == 0 {
			c.Next()
			return
		}
		host, _, err := net.SplitHostPort(c.Req.RemoteAddr)
		if err != nil {
			host = c.Req.RemoteAddr
		}
		if _, ok := set[host]; !ok {
			c.Error(http.StatusForbidden, "ip_whitelist auth invalid")
			return
		}
		c.Next()
	}
}
