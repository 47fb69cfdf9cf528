package web

import (
	"sync/atomic"

	"ossy/pkg/errors"
)

// RunGuard allows one agent run at a time per process
type RunGuard struct {
	busy atomic.Bool
}

// Acquire takes the guard. The returned release must be called once the run
// ends. Fails with ErrBusy while another run holds it.
func (g *RunGuard) Acquire() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, errors.ErrBusy
	}
	return func() { g.busy.Store(false) }, nil
}

// Active reports whether a run holds the guard
func (g *RunGuard) Active() bool {
	return g.busy.Load()
}
