// Package pool runs a fixed number of goroutines over a list of work items
// and hands results back as they finish.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// ErrPanic wraps a panic recovered from a work function.
var ErrPanic = errors.New("worker panic")

// Outcome pairs an item with what the work function produced for it.
type Outcome[T, R any] struct {
	Item  T
	Value R
	Err   error
	Stack []byte
}

// Size resolves a requested pool size: n <= 0 means one worker per CPU.
func Size(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Run processes items with at most size concurrent calls to fn and delivers
// each outcome to onResult in completion order. onResult is called from the
// caller's goroutine only, so it needs no locking. Every item is queued up
// front and the queue is closed before any result is read; Run returns only
// after all items are processed and every worker has exited.
//
// A panic in fn is recovered and reported as an Outcome with ErrPanic, so one
// bad item never takes down the others.
func Run[T, R any](ctx context.Context, size int, items []T, fn func(context.Context, T) (R, error), onResult func(Outcome[T, R])) {
	if len(items) == 0 {
		return
	}
	size = Size(size)
	if size > len(items) {
		size = len(items)
	}

	jobs := make(chan T, len(items))
	for _, it := range items {
		jobs <- it
	}
	close(jobs)

	results := make(chan Outcome[T, R], size)
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				results <- call(ctx, fn, it)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		if onResult != nil {
			onResult(out)
		}
	}
}

func call[T, R any](ctx context.Context, fn func(context.Context, T) (R, error), it T) (out Outcome[T, R]) {
	out.Item = it
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%w: %v", ErrPanic, r)
			out.Stack = debug.Stack()
		}
	}()
	out.Value, out.Err = fn(ctx, it)
	return out
}
