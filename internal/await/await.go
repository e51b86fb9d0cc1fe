// Package await turns a callback-based asynchronous operation into a
// blocking call. A Pending value is handed to the callback, which settles
// it exactly once; the issuing goroutine blocks in Wait until then.
package await

import (
	"sync"
)

// State is the settlement state of a Pending value.
type State int32

const (
	// StatePending means the callback has not fired yet.
	StatePending State = iota
	// StateDone means the operation completed with a value.
	StateDone
	// StateFailed means the operation completed with an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pending holds the outcome of one asynchronous operation.
// The zero value is not usable; create one with New.
type Pending[T any] struct {
	value T
	err   error
	done  chan struct{}
	mu    sync.Mutex
	state State
}

// New returns an unsettled Pending value.
func New[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

// Resolve settles p with v. It returns false, and changes nothing, if p
// was already settled.
func (p *Pending[T]) Resolve(v T) bool {
	return p.settle(StateDone, v, nil)
}

// Reject settles p with err. It returns false, and changes nothing, if p
// was already settled. A nil err is treated as Resolve with the zero value.
func (p *Pending[T]) Reject(err error) bool {
	var zero T
	if err == nil {
		return p.settle(StateDone, zero, nil)
	}
	return p.settle(StateFailed, zero, err)
}

// Settle resolves p with the zero value when err is nil and rejects it
// otherwise. Its signature matches completion callbacks of the form
// func(error).
func (p *Pending[T]) Settle(err error) bool {
	return p.Reject(err)
}

func (p *Pending[T]) settle(state State, v T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePending {
		return false
	}
	p.value = v
	p.err = err
	p.state = state
	close(p.done)
	return true
}

// Done is closed once p is settled.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// State returns the current settlement state.
func (p *Pending[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until p is settled and returns its outcome.
// There is no timeout: Wait returns only after the callback fires.
func (p *Pending[T]) Wait() (T, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}
