package actions

import "context"

// Handle is the promise-like result of invoking an action: it resolves
// once, with either the fulfilled payload or the rejection error.
type Handle[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// Done closes once the action has settled.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Wait blocks until the action settles or ctx expires. The action itself
// keeps running after a Wait timeout; its lifecycle events still reach
// the store.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (h *Handle[T]) resolve(v T) {
	h.val = v
	close(h.done)
}

func (h *Handle[T]) reject(err error) {
	h.err = err
	close(h.done)
}
