package observer

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadySubscribed 重复订阅
	ErrAlreadySubscribed = errors.New("the observer had already been subscribed")
	// ErrNotSubscribed 取消一个未订阅的观察者
	ErrNotSubscribed = errors.New("the observer has not been subscribed")
	// ErrNilObserver 观察者为 nil
	ErrNilObserver = errors.New("nil observer")
	// ErrUncomparableObserver 观察者的动态类型不可比较（如切片、map、函数），无法去重
	ErrUncomparableObserver = errors.New("observer is not comparable")
)

// ListenerPanicError 观察者在 Update 中 panic，被主体捕获后返回给调用方
type ListenerPanicError struct {
	Subject  string
	Observer string
	Value    interface{}
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("news %s: observer %s panicked: %v", e.Subject, e.Observer, e.Value)
}
