package svn

import (
	"context"
	"sync"
	"time"
)

type fakeExecutor struct {
	mu       sync.Mutex
	calls    []Command
	handler  func(ctx context.Context, cmd Command) ([]byte, error)
	finished chan struct{}
}

func newFakeExecutor(handler func(ctx context.Context, cmd Command) ([]byte, error)) *fakeExecutor {
	return &fakeExecutor{handler: handler, finished: make(chan struct{}, 16)}
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd Command) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	defer func() { f.finished <- struct{}{} }()
	return f.handler(ctx, cmd)
}

func (f *fakeExecutor) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

func staticOutput(out string) func(context.Context, Command) ([]byte, error) {
	return func(context.Context, Command) ([]byte, error) { return []byte(out), nil }
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
