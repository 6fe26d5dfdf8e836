// Package background joins related goroutines into cancelable scopes.
package background

import (
	"context"
	"sync"
)

// Scope - concurrency scope: every goroutine started with Go shares one
// context and is waited for on cancel.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScope - builds a scope and its cancel function. Cancel expires the
// scope context and blocks until every registered goroutine has returned.
func NewScope() (scope *Scope, cancel func()) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	s := &Scope{ctx: ctx, cancel: cancelCtx}
	return s, func() {
		s.cancel()
		s.wg.Wait()
	}
}

// Context - scope lifetime context, expired once cancel was called.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go - starts fn on its own goroutine registered with the scope.
// fn should return promptly once its context is done.
func (s *Scope) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}
