// Package optimistic implements the speculative-command contract callers
// owe the request simulator: snapshot local state, apply the change
// immediately, fire the call, and restore the snapshot when the simulated
// server rejects it. The injected failure rates exist to exercise exactly
// this rollback path.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrRejected marks a command whose call came back with a non-success
// status; the local view has already been rolled back when it is returned.
var ErrRejected = errors.New("speculative update rejected")

// View is a caller's local copy of some state, mutated speculatively.
type View[S any] struct {
	mu    sync.Mutex
	state S
}

func NewView[S any](initial S) *View[S] {
	return &View[S]{state: initial}
}

func (v *View[S]) Get() S {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View[S]) set(s S) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = s
}

// Command is one speculative mutation. Apply produces the optimistic state
// from the current one; Call performs the simulated request and reports its
// status code.
type Command[S any] struct {
	Apply func(S) S
	Call  func(context.Context) (int, error)
}

// Run executes the command against a view: the mutation is visible in the
// view before the call starts, stays if the call succeeds, and is undone if
// it fails. The pre-mutation snapshot is restored exactly; there is no
// merge with whatever the server would have returned.
func Run[S any](ctx context.Context, view *View[S], cmd Command[S]) (int, error) {
	snapshot := view.Get()
	view.set(cmd.Apply(snapshot))

	status, err := cmd.Call(ctx)
	if err != nil {
		view.set(snapshot)
		return status, err
	}
	if status < 200 || status >= 300 {
		view.set(snapshot)
		return status, fmt.Errorf("status %d: %w", status, ErrRejected)
	}
	return status, nil
}
