package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 因收到终止信号而退出，配合 errors.Is 使用
	ErrSignal = errors.New("received signal")

	// ErrNilFunc 传入了 nil 服务函数
	ErrNilFunc = errors.New("xrun: nil function")

	// ErrInvalidInterval Ticker 的间隔必须为正数
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
)

// SignalError 记录触发退出的信号。
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    fmt.Println(sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Is 支持 errors.Is(err, ErrSignal)
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}

// Unwrap 返回 ErrSignal
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
