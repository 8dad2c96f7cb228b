package sink

import (
	"context"
	"encoding/json"
	"github.com/garyburd/redigo/redis"
	"time"
)

// ConnGetter 获取 redis 连接，*redis.Pool 实现了该接口
type ConnGetter interface {
	Get() redis.Conn
}

// NewRedisPool 创建 redis 连接池
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second))
		},
	}
}

// Redis 把新闻 PUBLISH 到频道，并 RPUSH 到列表
// channel 或 list 为空时跳过对应命令
type Redis struct {
	pool    ConnGetter
	channel string
	list    string
}

var _ Deliverer = (*Redis)(nil)

func NewRedis(pool ConnGetter, channel, list string) *Redis {
	return &Redis{pool: pool, channel: channel, list: list}
}

func (r *Redis) Name() string {
	return "redis"
}

func (r *Redis) Deliver(ctx context.Context, d Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn := r.pool.Get()
	defer conn.Close()

	if r.channel != "" {
		payload, err := json.Marshal(d)
		if err != nil {
			return err
		}
		if _, err := conn.Do("PUBLISH", r.channel, payload); err != nil {
			return err
		}
	}
	if r.list != "" {
		if _, err := conn.Do("RPUSH", r.list, d.Item); err != nil {
			return err
		}
	}
	return nil
}
