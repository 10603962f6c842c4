package monitoring

import (
	"sync"
	"time"

	"github.com/enersim/enersim/sim"
)

// A ProgressBar tracks how far a simulation run has advanced.
type ProgressBar struct {
	lock sync.Mutex

	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished increments the number of finished timesteps.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.Finished += amount
}

// timestepProgressHook advances a progress bar after each timestep.
type timestepProgressHook struct {
	bar *ProgressBar
}

func (h timestepProgressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterTimestep {
		return
	}

	h.bar.IncrementFinished(1)
}
