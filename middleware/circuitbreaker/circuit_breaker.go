package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"github.com/afex/hystrix-go/hystrix"
	"newsfeed/conf"
	"newsfeed/sink"
)

var (
	ErrCircuitOpen    = errors.New("circuit open")
	ErrMaxConcurrency = errors.New("max concurrency")
	ErrTimeout        = errors.New("timeout")
)

// Configure 配置 hystrix 命令
//
// 参数：
//	Timeout(ms)：单次投递超时时间
//	MaxConcurrentRequests：最大并发量
//	SleepWindow(ms)：熔断后多久去尝试服务是否可用
//	RequestVolumeThreshold：10 秒内触发熔断判断的最小请求数
//	ErrorPercentThreshold：触发熔断的错误百分比
func Configure(name string, c conf.BreakerConf) {
	hystrix.ConfigureCommand(name, hystrix.CommandConfig{
		Timeout:                c.Timeout,
		MaxConcurrentRequests:  c.MaxConcurrentRequests,
		SleepWindow:            c.SleepWindow,
		RequestVolumeThreshold: c.RequestVolumeThreshold,
		ErrorPercentThreshold:  c.ErrorPercentThreshold,
	})
}

// Breaker 用熔断器包装一个 sink
// 下游连续失败时直接返回 ErrCircuitOpen，不再调用下游
type Breaker struct {
	name string
	next sink.Deliverer
}

var _ sink.Deliverer = (*Breaker)(nil)

// NewBreaker name 为 hystrix 命令名，需要先用 Configure 配置，否则使用 hystrix 默认参数
func NewBreaker(name string, next sink.Deliverer) *Breaker {
	return &Breaker{name: name, next: next}
}

func (b *Breaker) Name() string {
	return b.next.Name()
}

func (b *Breaker) Deliver(ctx context.Context, d sink.Delivery) error {
	err := hystrix.Do(b.name, func() error {
		return b.next.Deliver(ctx, d)
	}, nil)
	switch err {
	case nil:
		return nil
	case hystrix.ErrCircuitOpen:
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	case hystrix.ErrMaxConcurrency:
		return fmt.Errorf("%s: %w", b.name, ErrMaxConcurrency)
	case hystrix.ErrTimeout:
		return fmt.Errorf("%s: %w", b.name, ErrTimeout)
	default:
		return err
	}
}

// StreamHandler 熔断统计流，可挂到 HTTP 服务上给 hystrix dashboard 使用
// 调用方负责在退出时调用 Stop
func StreamHandler() *hystrix.StreamHandler {
	h := hystrix.NewStreamHandler()
	h.Start()
	return h
}
