package sink

import (
	"context"
	"github.com/rs/zerolog"
	"newsfeed/observer"
	"sync"
	"time"
)

// Delivery 交给 sink 的一条新闻
// Seq 是新闻在主体新闻列表中的位置，从 1 开始
type Delivery struct {
	News string    `json:"news"`
	Seq  int       `json:"seq"`
	Item string    `json:"item"`
	At   time.Time `json:"at"`
}

// Deliverer 新闻投递目标：webhook、redis、sqlite、websocket 等
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, d Delivery) error
}

// DeliveryRecorder 投递结果指标
type DeliveryRecorder interface {
	Delivered(sink string, err error)
}

type noopRecorder struct{}

func (noopRecorder) Delivered(string, error) {}

// Relay 把主体的新新闻转交给 Deliverer 的观察者
//
// Relay 维护一个游标：每次收到 ItemAdded 通知时，读取游标之后的全部新闻并依次投递，
// 这样即使同一次通知之前追加了多条新闻也不会遗漏。投递失败只记录日志和指标，
// 游标照常前进，不重试。
type Relay struct {
	items   observer.ItemLog
	to      Deliverer
	mu      sync.Mutex
	seen    int
	timeout time.Duration
	log     zerolog.Logger
	metrics DeliveryRecorder
	now     func() time.Time
}

var _ observer.Observer = (*Relay)(nil)

type RelayOption func(*Relay)

func WithTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.timeout = d
	}
}

func WithLogger(log zerolog.Logger) RelayOption {
	return func(r *Relay) {
		r.log = log
	}
}

func WithRecorder(m DeliveryRecorder) RelayOption {
	return func(r *Relay) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithBacklog 从第一条新闻开始投递，默认只投递创建 Relay 之后的新闻
func WithBacklog() RelayOption {
	return func(r *Relay) {
		r.seen = 0
	}
}

// NewRelay 创建绑定到 items 的 Relay
func NewRelay(items observer.ItemLog, to Deliverer, opts ...RelayOption) *Relay {
	r := &Relay{
		items:   items,
		to:      to,
		seen:    items.Len(),
		timeout: 5 * time.Second,
		log:     zerolog.Nop(),
		metrics: noopRecorder{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("sink", to.Name()).Logger()
	return r
}

// Update 观察者接口实现
func (r *Relay) Update(src observer.EventSource) {
	switch src.EventType() {
	case observer.ItemAdded:
		r.flush()
	case observer.NoEvent:
	}
}

// Seen 已投递（或已放弃）的新闻数量
func (r *Relay) Seen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen
}

func (r *Relay) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.items.Since(r.seen)
	for i, item := range pending {
		d := Delivery{
			News: r.items.Name(),
			Seq:  r.seen + i + 1,
			Item: item,
			At:   r.now(),
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.to.Deliver(ctx, d)
		cancel()
		r.metrics.Delivered(r.to.Name(), err)
		if err != nil {
			r.log.Warn().Err(err).Int("seq", d.Seq).Msg("delivery failed")
			continue
		}
		r.log.Debug().Int("seq", d.Seq).Msg("delivered")
	}
	r.seen += len(pending)
}
