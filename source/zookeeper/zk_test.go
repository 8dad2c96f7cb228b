package zookeeper

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"github.com/samuel/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"newsfeed/observer"
	"sync"
	"testing"
	"time"
)

// fakeConn 内存中的单节点 zk
// GetW 依次返回 values 中的值，还有下一个值时立即触发 watch 事件
type fakeConn struct {
	mu      sync.Mutex
	nodes   map[string][]byte
	version int32
	values  []string
	getErr  error
	closed  bool
}

func (f *fakeConn) Get(path string) ([]byte, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.nodes[path]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return data, &zk.Stat{Version: f.version}, nil
}

func (f *fakeConn) GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, nil, nil, f.getErr
	}
	events := make(chan zk.Event, 1)
	if len(f.values) == 0 {
		return nil, nil, events, nil
	}
	v := f.values[0]
	f.values = f.values[1:]
	if len(f.values) > 0 {
		events <- zk.Event{Type: zk.EventNodeDataChanged, Path: path}
	}
	return []byte(v), &zk.Stat{}, events, nil
}

func (f *fakeConn) Set(path string, data []byte, version int32) (*zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if version != f.version {
		return nil, zk.ErrBadVersion
	}
	f.nodes[path] = data
	f.version++
	return &zk.Stat{Version: f.version}, nil
}

func (f *fakeConn) Exists(path string) (bool, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.nodes[path]
	return ok, &zk.Stat{Version: f.version}, nil
}

func (f *fakeConn) Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[path] = data
	return path, nil
}

func (f *fakeConn) Close() {
	f.closed = true
}

func TestSetPathData(t *testing.T) {
	conn := &fakeConn{nodes: map[string][]byte{}}
	z := NewZkManagerWithConn(conn, zerolog.Nop())

	require.NoError(t, z.SetPathData("/news_conf", []byte("Noticia 1")))
	require.NoError(t, z.SetPathData("/news_conf", []byte("Noticia 2")))

	data, _, err := z.GetPathData("/news_conf")
	require.NoError(t, err)
	assert.Equal(t, "Noticia 2", string(data))

	z.Close()
	assert.True(t, conn.closed)
}

func TestFeedPublishesNodeChanges(t *testing.T) {
	conn := &fakeConn{values: []string{"Noticia 1", "Noticia 1", "  ", "Noticia 2\n"}}
	z := NewZkManagerWithConn(conn, zerolog.Nop())
	news := observer.NewNews(0, "myNews")
	feed := NewFeed(news, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Watch(ctx, z, "/news_conf") }()

	require.Eventually(t, func() bool { return news.Len() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"Noticia 1", "Noticia 2"}, news.Items())
}

func TestFeedStopsOnWatchError(t *testing.T) {
	boom := errors.New("session expired")
	z := NewZkManagerWithConn(&fakeConn{getErr: boom}, zerolog.Nop())
	feed := NewFeed(observer.NewNews(0, "myNews"), zerolog.Nop())

	err := feed.Watch(context.Background(), z, "/news_conf")
	assert.ErrorIs(t, err, boom)
}
