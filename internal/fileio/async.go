package fileio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Result is the outcome of an asynchronous file operation.
type Result struct {
	Path string
	Data []byte
	Err  error
}

// ReadAsync reads path on a goroutine. The channel receives exactly one
// result unless ctx is cancelled first, in which case it is closed empty.
func ReadAsync(ctx context.Context, path string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		data, err := os.ReadFile(path)
		if err != nil {
			err = fmt.Errorf("reading %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
		case ch <- Result{Path: path, Data: data, Err: err}:
		}
	}()
	return ch
}

// WriteAsync writes data to path on a goroutine, creating parent directories.
func WriteAsync(ctx context.Context, path string, data []byte) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err == nil {
			err = os.WriteFile(path, data, 0644)
		}
		if err != nil {
			err = fmt.Errorf("writing %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
		case ch <- Result{Path: path, Err: err}:
		}
	}()
	return ch
}

// Dispatcher queues continuations for the main thread.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	pending chan struct{}
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{pending: make(chan struct{}, 1)}
}

// Post queues fn. Safe to call from any goroutine.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.pending <- struct{}{}:
	default:
	}
}

// Drain runs every queued function on the calling goroutine and returns how
// many ran. Functions posted while draining run on the next call.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// Len returns the number of queued functions.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Pending is signalled after Post. It lets a caller block until work arrives.
func (d *Dispatcher) Pending() <-chan struct{} {
	return d.pending
}

// Deliver forwards the result from ch to fn on the dispatcher's thread.
// Nothing is posted if ch closes without a result.
func Deliver(d *Dispatcher, ch <-chan Result, fn func(Result)) {
	go func() {
		if res, ok := <-ch; ok {
			d.Post(func() { fn(res) })
		}
	}()
}
