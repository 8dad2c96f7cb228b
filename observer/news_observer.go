package observer

import (
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"os"
)

// NewsObserver 新闻观察者（具体观察者）
// 只有编号和名称，不保存主体引用
type NewsObserver struct {
	id     int
	name   string
	report func(msg string)
}

var _ Observer = (*NewsObserver)(nil)

// NewNewsObserver 观察到的事件逐行写入 w，w 为空时写到标准输出
func NewNewsObserver(id int, name string, w io.Writer) *NewsObserver {
	if w == nil {
		w = os.Stdout
	}
	return &NewsObserver{
		id:   id,
		name: name,
		report: func(msg string) {
			fmt.Fprintln(w, msg)
		},
	}
}

// NewNewsObserverWithLogger 观察到的事件以 info 级别写入日志
func NewNewsObserverWithLogger(id int, name string, log zerolog.Logger) *NewsObserver {
	l := log.With().Str("observer", name).Int("observer_id", id).Logger()
	return &NewsObserver{
		id:   id,
		name: name,
		report: func(msg string) {
			l.Info().Msg(msg)
		},
	}
}

func (o *NewsObserver) ID() int {
	return o.id
}

func (o *NewsObserver) Name() string {
	return o.name
}

// Update 只处理 ItemAdded，其它事件类型忽略
func (o *NewsObserver) Update(src EventSource) {
	switch src.EventType() {
	case ItemAdded:
		o.report(fmt.Sprintf("I am a NewsObserver called %s and I have observed that News %s update",
			o.name, src.Name()))
	case NoEvent:
	}
}
