package ads

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy controls how a Task retries its operation.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint
}

// DefaultRetryPolicy is used for interstitial preloading.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: 2 * time.Second,
	MaxInterval:     time.Minute,
	MaxTries:        5,
}

// Task is a background operation retried with exponential backoff until it
// succeeds, runs out of tries, or is cancelled.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Schedule starts op in the background under policy.
func Schedule(parent context.Context, policy RetryPolicy, op func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	go func() {
		defer close(t.done)
		defer cancel()
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			return struct{}{}, op(ctx)
		}, backoff.WithBackOff(b), backoff.WithMaxTries(policy.MaxTries))

		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return t
}

// Cancel stops the task and waits for it to exit.
func (t *Task) Cancel() {
	t.cancel()
	<-t.done
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the final error once Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
