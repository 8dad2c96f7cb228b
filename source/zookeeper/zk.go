package zookeeper

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/samuel/go-zookeeper/zk"
	"time"
)

// Conn ZkManager 用到的 *zk.Conn 方法
type Conn interface {
	Get(path string) ([]byte, *zk.Stat, error)
	GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error)
	Set(path string, data []byte, version int32) (*zk.Stat, error)
	Exists(path string) (bool, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	Close()
}

// ZkManager zookeeper管理器
// 	提供如下功能：
// 	1.连接的建立与关闭
// 	2.读取与更新节点数据
// 	3.监听节点数据变化
type ZkManager struct {
	hosts []string // zk主机列表
	conn  Conn
	log   zerolog.Logger
}

// NewZkManager 新建 zookeeper管理器
func NewZkManager(hosts []string, log zerolog.Logger) *ZkManager {
	return &ZkManager{hosts: hosts, log: log}
}

// NewZkManagerWithConn 使用已经建立的连接
func NewZkManagerWithConn(conn Conn, log zerolog.Logger) *ZkManager {
	return &ZkManager{conn: conn, log: log}
}

// Connect 连接zk服务器
func (z *ZkManager) Connect() error {
	conn, _, err := zk.Connect(z.hosts, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect zookeeper %v: %w", z.hosts, err)
	}
	z.conn = conn
	return nil
}

// Close 关闭连接
func (z *ZkManager) Close() {
	if z.conn != nil {
		z.conn.Close()
	}
}

// GetPathData 获取节点数据
func (z *ZkManager) GetPathData(nodePath string) ([]byte, *zk.Stat, error) {
	return z.conn.Get(nodePath)
}

// SetPathData 更新节点数据，节点不存在时创建持久节点
func (z *ZkManager) SetPathData(nodePath string, data []byte) error {
	ex, _, err := z.conn.Exists(nodePath)
	if err != nil {
		return err
	}
	if !ex {
		_, err = z.conn.Create(nodePath, data, 0, zk.WorldACL(zk.PermAll))
		return err
	}
	_, stat, err := z.GetPathData(nodePath)
	if err != nil {
		return err
	}
	_, err = z.conn.Set(nodePath, data, stat.Version)
	return err
}

// WatchPathData watch机制，监听节点值变化
// zk 的 watcher 是一次性的，每次触发后重新注册。
// 每次注册时把当前数据写入快照 channel；ctx 结束或出错时关闭两个 channel。
func (z *ZkManager) WatchPathData(ctx context.Context, nodePath string) (<-chan []byte, <-chan error) {
	snapshots := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(snapshots)
		defer close(errs)
		for {
			data, _, events, err := z.conn.GetW(nodePath)
			if err != nil {
				errs <- err
				return
			}
			select {
			case snapshots <- data:
			case <-ctx.Done():
				return
			}
			select {
			case evt := <-events:
				if evt.Err != nil {
					errs <- evt.Err
					return
				}
				z.log.Debug().Str("path", evt.Path).Str("type", evt.Type.String()).Msg("zookeeper event")
			case <-ctx.Done():
				return
			}
		}
	}()
	return snapshots, errs
}
