package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"k8s.io/klog/v2"
)

// Handler runs one parsed command and returns its printable result
type Handler func(ctx context.Context) (interface{}, error)

// Middleware decorates a command handler
type Middleware func(name string, next Handler) Handler

// Chain applies middlewares so that the first one listed runs outermost
func Chain(name string, h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](name, h)
	}
	return h
}

// ErrorHandler turns a panic inside a command into an internal error
func ErrorHandler(name string, next Handler) Handler {
	return func(ctx context.Context) (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				klog.Errorf("❌ Panic recovered in %s: %v", name, r)
				klog.V(1).Infof("Stack trace: %s", debug.Stack())
				result, err = nil, fmt.Errorf("internal error in %s: %v", name, r)
			}
		}()
		return next(ctx)
	}
}
