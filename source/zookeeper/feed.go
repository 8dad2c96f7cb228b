package zookeeper

import (
	"context"
	"github.com/rs/zerolog"
	"strings"
)

// Publisher 新闻发布方，*observer.News 实现了该接口
type Publisher interface {
	OnNewsUpdate(item string) error
}

// Feed 把 zk 节点的数据作为新闻发布
// 节点数据变化时发布新值；空值和与上一次相同的值被忽略
type Feed struct {
	news Publisher
	log  zerolog.Logger
	last string
}

func NewFeed(news Publisher, log zerolog.Logger) *Feed {
	return &Feed{news: news, log: log}
}

// Watch 监听 nodePath，直到 ctx 结束或监听出错
func (f *Feed) Watch(ctx context.Context, z *ZkManager, nodePath string) error {
	snapshots, errs := z.WatchPathData(ctx, nodePath)
	return f.Run(ctx, snapshots, errs)
}

// Run 消费数据快照
func (f *Feed) Run(ctx context.Context, snapshots <-chan []byte, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				return err
			}
			errs = nil
		case data, ok := <-snapshots:
			if !ok {
				return drain(ctx, errs)
			}
			f.publish(string(data))
		}
	}
}

// drain 快照 channel 关闭后，返回监听错误或 ctx 的错误
func drain(ctx context.Context, errs <-chan error) error {
	if errs != nil {
		if err, ok := <-errs; ok && err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (f *Feed) publish(data string) {
	item := strings.TrimSpace(data)
	if item == "" || item == f.last {
		return
	}
	f.last = item
	if err := f.news.OnNewsUpdate(item); err != nil {
		f.log.Warn().Err(err).Msg("publish zookeeper news")
	}
}
