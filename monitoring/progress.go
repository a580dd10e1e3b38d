package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/tablevertex/sim"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// Reset starts the bar over with a new total.
func (b *ProgressBar) Reset(total uint64) {
	b.Lock()
	defer b.Unlock()

	b.Total = total
	b.Finished = 0
	b.InProgress = 0
	b.StartTime = time.Now()
}

// TickProgress is a hook that advances a progress bar every time a named
// ticking component ticks.
type TickProgress struct {
	Bar     *ProgressBar
	Handler string
}

// Func counts the tick events handled by the component.
func (h *TickProgress) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	evt, ok := ctx.Item.(sim.TickEvent)
	if !ok {
		return
	}

	named, ok := evt.Handler().(sim.Named)
	if !ok || named.Name() != h.Handler {
		return
	}

	h.Bar.IncrementFinished(1)
}
