package api

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"net/http"
	"newsfeed/conf"
	"newsfeed/metrics"
	"newsfeed/middleware/router"
	"newsfeed/middleware/timerate"
	"newsfeed/middleware/whitelist"
	"newsfeed/observer"
	"newsfeed/sink"
	"strings"
	"time"
)

// 发布请求体最大字节数
const maxBodyBytes = 64 << 10

// Server 新闻 HTTP 接口
//	GET  /news           新闻主体信息和全部新闻
//	POST /news           发布新闻，受 IP 白名单和限流保护
//	GET  /ws             websocket 推送（需要 Hub）
//	GET  /metrics        prometheus 指标（需要 Collector）
//	GET  /hystrix.stream 熔断统计流（需要 StreamHandler）
type Server struct {
	news    *observer.News
	cfg     conf.HTTPConf
	hub     *sink.Hub
	metrics *metrics.Collector
	stream  http.Handler
	log     zerolog.Logger

	handler http.Handler
}

type Option func(*Server)

func WithHub(h *sink.Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithStream 挂载熔断统计流
func WithStream(h http.Handler) Option {
	return func(s *Server) {
		s.stream = h
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewsView GET /news 的响应
type NewsView struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Event       string   `json:"event"`
	Subscribers int      `json:"subscribers"`
	Items       []string `json:"items"`
}

type publishRequest struct {
	Item string `json:"item"`
}

func New(news *observer.News, cfg conf.HTTPConf, opts ...Option) *Server {
	s := &Server{
		news: news,
		cfg:  cfg,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = h2c.NewHandler(s.routes(), &http2.Server{})
	return s
}

func (s *Server) routes() *router.Router {
	r := router.New()

	root := r.Group("/").Use(s.trace)
	root.GET("/news", s.list)
	if s.hub != nil {
		root.GET("/ws", router.Wrap(s.hub))
	}
	if s.metrics != nil {
		root.GET("/metrics", router.Wrap(s.metrics.Handler()))
	}
	if s.stream != nil {
		root.GET("/hystrix.stream", router.Wrap(s.stream))
	}

	publish := r.Group("/news").Use(s.trace, whitelist.IPWhiteList(s.cfg.AllowPublish))
	if s.cfg.RateLimit > 0 {
		var onLimit func()
		if s.metrics != nil {
			onLimit = s.metrics.RateLimited
		}
		publish.Use(timerate.RateLimiter(s.cfg.RateLimit, s.cfg.Burst, onLimit))
	}
	publish.POST("", s.publish)
	return r
}

// Handler 同时支持 HTTP/1.1 和明文 HTTP/2 (h2c)
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run 监听 cfg.Addr，ctx 结束时优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("http listening")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) trace(c *router.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug().
		Str("method", c.Req.Method).
		Str("path", c.Req.URL.Path).
		Str("remote", c.Req.RemoteAddr).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

func (s *Server) list(c *router.Context) {
	c.JSON(http.StatusOK, NewsView{
		ID:          s.news.ID(),
		Name:        s.news.Name(),
		Event:       s.news.EventType().String(),
		Subscribers: s.news.Subscribers(),
		Items:       s.news.Items(),
	})
}

func (s *Server) publish(c *router.Context) {
	var req publishRequest
	body := http.MaxBytesReader(c.Rw, c.Req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		c.Error(http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	item := strings.TrimSpace(req.Item)
	if item == "" {
		c.Error(http.StatusBadRequest, "empty news item")
		return
	}
	if err := s.news.OnNewsUpdate(item); err != nil {
		s.log.Warn().Err(err).Msg("notify observers")
	}
	c.JSON(http.StatusAccepted, publishRequest{Item: item})
}
