package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// 最多 63 个处理函数
const abortIndex int8 = 63

// HandlerFunc 中间件和业务处理函数，以数组形式依次执行
type HandlerFunc func(*Context)

// Router 方法数组路由器
// 一个路由器包含多个路由分组，每个分组有自己的中间件和路由表
type Router struct {
	groups []*Group
}

// Group 路由分组
// 	prefix：分组前缀，请求按最长前缀匹配分组
// 	middlewares：分组内所有路由共享的中间件
// 	routes：完整路径 -> 请求方法 -> 处理函数
type Group struct {
	*Router

	prefix      string
	middlewares []HandlerFunc
	routes      map[string]map[string][]HandlerFunc
}

// Context 路由上下文，每个请求一个实例
type Context struct {
	handlers []HandlerFunc
	index    int8

	Ctx context.Context
	Req *http.Request
	Rw  http.ResponseWriter
}

// New 构造路由器实例
func New() *Router {
	return &Router{}
}

// Group 创建路由分组并注册到路由器
func (r *Router) Group(prefix string) *Group {
	g := &Group{
		Router: r,
		prefix: strings.TrimSuffix(prefix, "/"),
		routes: make(map[string]map[string][]HandlerFunc),
	}
	r.groups = append(r.groups, g)
	return g
}

// Use 添加中间件，只对之后注册的路由生效
func (g *Group) Use(middlewares ...HandlerFunc) *Group {
	g.middlewares = append(g.middlewares, middlewares...)
	return g
}

// Handle 注册路由：分组中间件在前，业务处理函数在后
func (g *Group) Handle(method, path string, handlers ...HandlerFunc) *Group {
	full := g.prefix + path
	if !strings.HasPrefix(full, "/") {
		full = "/" + full
	}
	chain := make([]HandlerFunc, 0, len(g.middlewares)+len(handlers))
	chain = append(chain, g.middlewares...)
	chain = append(chain, handlers...)
	if g.routes[full] == nil {
		g.routes[full] = make(map[string][]HandlerFunc)
	}
	g.routes[full][method] = chain
	return g
}

func (g *Group) GET(path string, handlers ...HandlerFunc) *Group {
	return g.Handle(http.MethodGet, path, handlers...)
}

func (g *Group) POST(path string, handlers ...HandlerFunc) *Group {
	return g.Handle(http.MethodPost, path, handlers...)
}

// Wrap 把 http.Handler 包装成处理函数
func Wrap(h http.Handler) HandlerFunc {
	return func(c *Context) {
		h.ServeHTTP(c.Rw, c.Req)
	}
}

// ServeHTTP 实现 http.Handler 接口
// 	1.在包含该路径和请求方法的分组中，按最长前缀选出一个分组
// 	2.路径存在但方法不匹配返回 405，路径不存在返回 404
// 	3.依次执行处理函数
func (r *Router) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	var handlers []HandlerFunc
	var allow []string
	matchLen := -1
	for _, g := range r.groups {
		if !strings.HasPrefix(req.URL.Path, g.prefix) {
			continue
		}
		methods, ok := g.routes[req.URL.Path]
		if !ok {
			continue
		}
		h, ok := methods[req.Method]
		if !ok {
			for m := range methods {
				allow = append(allow, m)
			}
			continue
		}
		if len(g.prefix) > matchLen {
			matchLen = len(g.prefix)
			handlers = h
		}
	}
	if handlers == nil {
		if len(allow) == 0 {
			http.NotFound(rw, req)
			return
		}
		sort.Strings(allow)
		rw.Header().Set("Allow", strings.Join(allow, ", "))
		http.Error(rw, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	c := &Context{
		handlers: handlers,
		Ctx:      req.Context(),
		Req:      req,
		Rw:       rw,
	}
	c.Reset()
	c.Next()
}

func (c *Context) Get(key interface{}) interface{} {
	return c.Ctx.Value(key)
}

func (c *Context) Set(key, val interface{}) {
	c.Ctx = context.WithValue(c.Ctx, key, val)
}

// Next 执行剩余的处理函数
func (c *Context) Next() {
	c.index++
	for c.index < int8(len(c.handlers)) {
		c.handlers[c.index](c)
		c.index++
	}
}

// Abort 跳过剩余的处理函数
func (c *Context) Abort() {
	c.index = abortIndex
}

func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}

// Reset 从第一个处理函数重新开始
func (c *Context) Reset() {
	c.index = -1
}

// JSON 写 JSON 响应
func (c *Context) JSON(status int, v interface{}) {
	c.Rw.Header().Set("Content-Type", "application/json")
	c.Rw.WriteHeader(status)
	_ = json.NewEncoder(c.Rw).Encode(v)
}

// Error 写 JSON 错误响应并终止
func (c *Context) Error(status int, msg string) {
	c.JSON(status, map[string]string{"error": msg})
	c.Abort()
}
