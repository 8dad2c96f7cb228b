package observer

// EventType 新闻主体最近一次发生的事件类型
//
// 只有两个取值，新增类型时需要同步修改 String 和 NewsObserver.Update 中的 switch。
// 状态只会 NoEvent -> ItemAdded 单向变化，之后不再重置（锁存，而不是脉冲）。
type EventType int

const (
	NoEvent EventType = iota
	ItemAdded

	eventTypeCount
)

func (t EventType) String() string {
	switch t {
	case NoEvent:
		return "no_event"
	case ItemAdded:
		return "item_added"
	default:
		return "unknown"
	}
}

// Valid 是否为已定义的事件类型
func (t EventType) Valid() bool {
	return t >= NoEvent && t < eventTypeCount
}
