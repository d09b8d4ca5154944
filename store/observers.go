package store

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Option configures a store.
type Option func(*options)

type options struct {
	logger *logrus.Logger
}

// WithLogger sets the logger failures are reported to.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// observers fans state snapshots out to subscribers in the order the state
// changed. Snapshots are queued under the store lock and delivered by one
// goroutine at a time with no lock held.
type observers[T any] struct {
	mu         sync.Mutex
	next       int
	fns        map[int]func(T)
	queue      []T
	delivering bool
}

func (o *observers[T]) subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	id := o.next
	o.next++
	o.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.fns, id)
		})
	}
}

// publish must be called with the owning store's state lock held; release
// drops it once v is queued. If another goroutine is already delivering, it
// picks v up as well.
func (o *observers[T]) publish(v T, release func()) {
	o.mu.Lock()
	o.queue = append(o.queue, v)
	if o.delivering {
		o.mu.Unlock()
		release()
		return
	}
	o.delivering = true
	o.mu.Unlock()
	release()

	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.delivering = false
			o.mu.Unlock()
			return
		}
		next := o.queue[0]
		o.queue = o.queue[1:]
		ids := make([]int, 0, len(o.fns))
		for id := range o.fns {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		fns := make([]func(T), 0, len(ids))
		for _, id := range ids {
			fns = append(fns, o.fns[id])
		}
		o.mu.Unlock()

		for _, fn := range fns {
			fn(next)
		}
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
