package observer

import (
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"reflect"
	"sync"
)

// News 新闻主体（具体主体）
//
// 并发约定：
//	Notify 在读锁下复制观察者列表，释放锁后再逐个调用 Update，
//	所以观察者在 Update 中可以调用主体的任何方法（包括 Subscribers、Subscribe）
//	通知期间的订阅变更从下一次通知开始生效
//	事件类型和新闻列表由单独的锁保护
//	OnNewsUpdate 串行执行，保证通知顺序与新闻追加顺序一致
type News struct {
	id   int
	name string

	lock      sync.RWMutex
	observers []Observer // 观察者列表

	stateLock sync.RWMutex
	eventType EventType
	items     []string // 新闻列表，只追加

	publishLock sync.Mutex

	log     zerolog.Logger
	metrics Recorder
}

var _ Observable = (*News)(nil)
var _ ItemLog = (*News)(nil)

// Option News 的可选配置
type Option func(*News)

// WithLogger 设置主体日志
func WithLogger(log zerolog.Logger) Option {
	return func(n *News) {
		n.log = log
	}
}

// WithRecorder 设置指标回调
func WithRecorder(r Recorder) Option {
	return func(n *News) {
		if r != nil {
			n.metrics = r
		}
	}
}

// NewNews 根据编号和名称创建新闻主体
func NewNews(id int, name string, opts ...Option) *News {
	n := &News{
		id:        id,
		name:      name,
		eventType: NoEvent,
		log:       zerolog.Nop(),
		metrics:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With().Str("news", name).Logger()
	return n
}

func (n *News) ID() int {
	return n.id
}

func (n *News) Name() string {
	return n.name
}

// EventType 最近一次事件类型，第一次收到新闻后一直为 ItemAdded
func (n *News) EventType() EventType {
	n.stateLock.RLock()
	defer n.stateLock.RUnlock()
	return n.eventType
}

// Items 返回新闻列表的副本
func (n *News) Items() []string {
	n.stateLock.RLock()
	defer n.stateLock.RUnlock()
	out := make([]string, len(n.items))
	copy(out, n.items)
	return out
}

// Len 新闻数量
func (n *News) Len() int {
	n.stateLock.RLock()
	defer n.stateLock.RUnlock()
	return len(n.items)
}

// Since 返回下标 >= offset 的新闻副本
func (n *News) Since(offset int) []string {
	n.stateLock.RLock()
	defer n.stateLock.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(n.items) {
		return nil
	}
	out := make([]string, len(n.items)-offset)
	copy(out, n.items[offset:])
	return out
}

// Subscribers 当前观察者数量
func (n *News) Subscribers() int {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return len(n.observers)
}

// Subscribe 将新的观察者添加到观察者列表
// 已经订阅过的观察者返回 ErrAlreadySubscribed，列表不变
func (n *News) Subscribe(o Observer) error {
	if err := checkObserver(o); err != nil {
		return fmt.Errorf("news %s: %w", n.name, err)
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.indexOf(o) != -1 {
		return fmt.Errorf("news %s: %w", n.name, ErrAlreadySubscribed)
	}
	n.observers = append(n.observers, o)
	n.metrics.Subscribers(n.name, len(n.observers))
	n.log.Debug().Int("subscribers", len(n.observers)).Msg("observer subscribed")
	return nil
}

// Unsubscribe 从观察者列表中删除指定观察者，保持其余观察者的顺序
// 未订阅的观察者返回 ErrNotSubscribed
func (n *News) Unsubscribe(o Observer) error {
	if err := checkObserver(o); err != nil {
		return fmt.Errorf("news %s: %w", n.name, err)
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	i := n.indexOf(o)
	if i == -1 {
		return fmt.Errorf("news %s: %w", n.name, ErrNotSubscribed)
	}
	n.observers = append(n.observers[:i], n.observers[i+1:]...)
	n.metrics.Subscribers(n.name, len(n.observers))
	n.log.Debug().Int("subscribers", len(n.observers)).Msg("observer unsubscribed")
	return nil
}

// Notify 按订阅顺序同步通知所有观察者
//
// 通知的是调用时的观察者快照。
// 某个观察者 panic 不会中断后续通知：panic 被捕获并包装成 ListenerPanicError，
// 所有错误合并后返回。
func (n *News) Notify() error {
	n.lock.RLock()
	observers := make([]Observer, len(n.observers))
	copy(observers, n.observers)
	n.lock.RUnlock()

	var errs []error
	for _, o := range observers {
		if err := n.update(o); err != nil {
			errs = append(errs, err)
		}
	}
	n.metrics.Notified(n.name, len(observers)-len(errs))
	return errors.Join(errs...)
}

// OnNewsUpdate 收到新闻：设置事件类型，追加到新闻列表，然后通知观察者
func (n *News) OnNewsUpdate(item string) error {
	n.publishLock.Lock()
	defer n.publishLock.Unlock()

	n.stateLock.Lock()
	n.eventType = ItemAdded
	n.items = append(n.items, item)
	seq := len(n.items)
	n.stateLock.Unlock()

	n.metrics.ItemPublished(n.name)
	n.log.Debug().Int("seq", seq).Msg("news received")
	return n.Notify()
}

func (n *News) update(o Observer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerPanicError{Subject: n.name, Observer: fmt.Sprintf("%T", o), Value: r}
			n.metrics.ListenerPanicked(n.name)
			n.log.Error().Str("observer", fmt.Sprintf("%T", o)).Interface("panic", r).Msg("observer panicked")
		}
	}()
	o.Update(n)
	return nil
}

// indexOf 调用方需要持有 lock
func (n *News) indexOf(o Observer) int {
	for i, obs := range n.observers {
		if obs == o {
			return i
		}
	}
	return -1
}

func checkObserver(o Observer) error {
	if o == nil {
		return ErrNilObserver
	}
	if !reflect.TypeOf(o).Comparable() {
		return ErrUncomparableObserver
	}
	return nil
}
