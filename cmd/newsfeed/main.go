package main

import (
	"context"
	"flag"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"net"
	"newsfeed/api"
	"newsfeed/conf"
	"newsfeed/logger"
	"newsfeed/metrics"
	"newsfeed/middleware/circuitbreaker"
	"newsfeed/observer"
	"newsfeed/rpc"
	"newsfeed/sink"
	"newsfeed/source/dropdir"
	"newsfeed/source/zookeeper"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var confPath = flag.String("conf", "", "path of the yaml config file")

func main() {
	flag.Parse()

	cfg, err := conf.Load(*confPath)
	log := logger.New(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("newsfeed stopped")
		os.Exit(1)
	}
	log.Info().Msg("newsfeed stopped")
}

// run 组装新闻主体、sink、source 和服务端，直到 ctx 结束或任一组件出错
func run(ctx context.Context, cfg conf.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := metrics.NewCollector()
	news, err := newNews(cfg.News, log, collector)
	if err != nil {
		return err
	}

	hub := sink.NewHub(logger.Component(log, "websocket"))
	defer hub.Close()
	relays := []*sink.Relay{newRelay(news, hub, log, collector)}

	if cfg.Webhook.URL != "" {
		circuitbreaker.Configure("webhook", cfg.Webhook.Breaker)
		hook := circuitbreaker.NewBreaker("webhook", sink.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout))
		relays = append(relays, newRelay(news, hook, log, collector))
	}
	if cfg.Redis.Addr != "" {
		pool := sink.NewRedisPool(cfg.Redis.Addr)
		defer pool.Close()
		relays = append(relays, newRelay(news, sink.NewRedis(pool, cfg.Redis.Channel, cfg.Redis.List), log, collector))
	}
	if cfg.Archive.Path != "" {
		archive, err := sink.OpenArchive(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer archive.Close()
		relays = append(relays, newRelay(news, archive, log, collector, sink.WithBacklog()))
	}
	for _, r := range relays {
		if err := news.Subscribe(r); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	errc := make(chan error, 4)
	spawn := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("component", name).Msg("stopped")
				errc <- err
			}
		}()
	}

	if cfg.DropDir.Dir != "" {
		w := dropdir.New(cfg.DropDir.Dir, cfg.DropDir.Exts, news, logger.Component(log, "dropdir"))
		if err := w.Start(ctx); err != nil {
			return err
		}
		// 先开始监听再补发，两者之间落入目录的文件不会丢失
		if cfg.DropDir.Backfill {
			if err := w.Backfill(); err != nil {
				return err
			}
		}
	}
	if len(cfg.Zookeeper.Hosts) > 0 {
		zkLog := logger.Component(log, "zookeeper")
		z := zookeeper.NewZkManager(cfg.Zookeeper.Hosts, zkLog)
		if err := z.Connect(); err != nil {
			return err
		}
		defer z.Close()
		feed := zookeeper.NewFeed(news, zkLog)
		spawn("zookeeper", func() error { return feed.Watch(ctx, z, cfg.Zookeeper.Path) })
	}

	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		s := grpc.NewServer()
		rpc.Register(s, rpc.NewServer(news, logger.Component(log, "grpc")))
		go func() {
			<-ctx.Done()
			s.GracefulStop()
		}()
		log.Info().Str("addr", cfg.GRPC.Addr).Msg("grpc listening")
		spawn("grpc", func() error { return s.Serve(lis) })
	}

	if cfg.HTTP.Addr != "" {
		stream := circuitbreaker.StreamHandler()
		defer stream.Stop()
		srv := api.New(news, cfg.HTTP,
			api.WithHub(hub),
			api.WithMetrics(collector),
			api.WithStream(stream),
			api.WithLogger(logger.Component(log, "http")),
		)
		spawn("http", func() error { return srv.Run(ctx) })
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	cancel()
	wg.Wait()
	return err
}

// newNews 创建新闻主体并订阅配置中的控制台观察者
func newNews(c conf.NewsConf, log zerolog.Logger, m *metrics.Collector) (*observer.News, error) {
	news := observer.NewNews(c.ID, c.Name,
		observer.WithLogger(logger.Component(log, "news")),
		observer.WithRecorder(m),
	)
	for i, name := range c.Observers {
		o := observer.NewNewsObserverWithLogger(i, name, logger.Component(log, "observer"))
		if err := news.Subscribe(o); err != nil {
			return nil, err
		}
	}
	return news, nil
}

func newRelay(news *observer.News, to sink.Deliverer, log zerolog.Logger, m *metrics.Collector, opts ...sink.RelayOption) *sink.Relay {
	opts = append(opts, sink.WithLogger(logger.Component(log, "relay")), sink.WithRecorder(m))
	return sink.NewRelay(news, to, opts...)
}
