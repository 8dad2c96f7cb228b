package conf

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// Config 服务配置，对应 YAML 配置文件
// 各 sink / source 的地址为空时表示不启用
type Config struct {
	News      NewsConf      `yaml:"news"`
	Log       LogConf       `yaml:"log"`
	HTTP      HTTPConf      `yaml:"http"`
	GRPC      GRPCConf      `yaml:"grpc"`
	Webhook   WebhookConf   `yaml:"webhook"`
	Redis     RedisConf     `yaml:"redis"`
	Archive   ArchiveConf   `yaml:"archive"`
	DropDir   DropDirConf   `yaml:"dropdir"`
	Zookeeper ZookeeperConf `yaml:"zookeeper"`
}

// NewsConf 新闻主体
type NewsConf struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	// Observers 控制台观察者名称，编号按顺序从 0 开始
	Observers []string `yaml:"observers"`
}

type LogConf struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// HTTPConf HTTP 接口
//	RateLimit：发布接口每秒产生的 token 数，0 表示不限流
//	Burst：最多存放的 token 数
//	AllowPublish：允许发布新闻的客户端 IP，为空时不限制
type HTTPConf struct {
	Addr         string   `yaml:"addr"`
	RateLimit    float64  `yaml:"rate_limit"`
	Burst        int      `yaml:"burst"`
	AllowPublish []string `yaml:"allow_publish"`
}

type GRPCConf struct {
	Addr string `yaml:"addr"`
}

// WebhookConf 新闻推送地址与熔断参数
type WebhookConf struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Breaker BreakerConf   `yaml:"breaker"`
}

// BreakerConf hystrix 熔断器参数，时间单位为毫秒
type BreakerConf struct {
	Timeout                int `yaml:"timeout"`
	MaxConcurrentRequests  int `yaml:"max_concurrent_requests"`
	SleepWindow            int `yaml:"sleep_window"`
	RequestVolumeThreshold int `yaml:"request_volume_threshold"`
	ErrorPercentThreshold  int `yaml:"error_percent_threshold"`
}

type RedisConf struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
	List    string `yaml:"list"`
}

type ArchiveConf struct {
	Path string `yaml:"path"`
}

type DropDirConf struct {
	Dir      string   `yaml:"dir"`
	Exts     []string `yaml:"exts"`
	Backfill bool     `yaml:"backfill"`
}

type ZookeeperConf struct {
	Hosts []string `yaml:"hosts"`
	Path  string   `yaml:"path"`
}

// Default 默认配置
func Default() Config {
	return Config{
		News: NewsConf{
			ID:        0,
			Name:      "myNews",
			Observers: []string{"firstNewsObserver", "secondNewsObserver"},
		},
		Log:  LogConf{Level: "info", Format: "console"},
		HTTP: HTTPConf{Addr: "127.0.0.1:8006", RateLimit: 1, Burst: 2},
		GRPC: GRPCConf{Addr: "127.0.0.1:8005"},
		Webhook: WebhookConf{
			Timeout: 5 * time.Second,
			Breaker: BreakerConf{
				Timeout:                1000,
				MaxConcurrentRequests:  10,
				SleepWindow:            5000,
				RequestVolumeThreshold: 10,
				ErrorPercentThreshold:  50,
			},
		},
		Redis:   RedisConf{Channel: "news", List: "news:items"},
		DropDir: DropDirConf{Exts: []string{".txt", ".md"}},
	}
}

// Load 读取 YAML 配置文件并覆盖默认配置，path 为空时只使用默认配置
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate 检查必填项
func (c Config) Validate() error {
	var errs []error
	if c.News.Name == "" {
		errs = append(errs, errors.New("news.name is required"))
	}
	if c.HTTP.Addr != "" && c.HTTP.Burst < 1 {
		errs = append(errs, errors.New("http.burst must be at least 1"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit must not be negative"))
	}
	if c.Zookeeper.Path != "" && len(c.Zookeeper.Hosts) == 0 {
		errs = append(errs, errors.New("zookeeper.hosts is required when zookeeper.path is set"))
	}
	if c.Webhook.URL != "" && c.Webhook.Timeout <= 0 {
		errs = append(errs, errors.New("webhook.timeout must be positive"))
	}
	return errors.Join(errs...)
}
