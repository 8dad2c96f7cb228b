// Package observer 观察者模式
//
// 一个主体（News）维护所有订阅它的观察者（NewsObserver），
// 当主体收到新的新闻时，按订阅顺序同步通知每一个观察者。
//
// 角色：
//	1、抽象主体：Observable，增加、删除观察者，并通知它们
//	2、具体主体：News，保存新闻列表，新闻到达时发出通知
//	3、抽象观察者：Observer，得到通知时更新自己
//	4、具体观察者：NewsObserver，把观察到的事件写到日志
package observer

// Observable 可被观察的主体（抽象主体）
type Observable interface {
	Subscribe(o Observer) error
	Unsubscribe(o Observer) error
	Notify() error
}

// Observer 观察者接口（抽象观察者）
//
// Update 收到的主体只在本次调用期间有效，观察者不应保存它。
// 观察者必须是可比较的值（通常是指针），订阅去重按接口相等判断。
type Observer interface {
	Update(src EventSource)
}

// EventSource 通知期间暴露给观察者的最小能力集合
// 任何满足该接口的主体都可以被 NewsObserver 观察，不需要判断具体类型
type EventSource interface {
	Name() string
	EventType() EventType
}

// ItemLog 可按偏移量读取新闻列表的主体
// 观察者通过比较前后长度区分是哪一条新闻触发了通知
type ItemLog interface {
	EventSource
	Len() int
	Since(offset int) []string
}

// Recorder 主体的指标回调，由 metrics 包实现
type Recorder interface {
	ItemPublished(subject string)
	Notified(subject string, observers int)
	ListenerPanicked(subject string)
	Subscribers(subject string, n int)
}

type noopRecorder struct{}

func (noopRecorder) ItemPublished(string)    {}
func (noopRecorder) Notified(string, int)    {}
func (noopRecorder) ListenerPanicked(string) {}
func (noopRecorder) Subscribers(string, int) {}
