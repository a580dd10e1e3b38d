package host

import (
	"github.com/sarchlab/tablevertex/sim"
)

// timer delivers TimerTick callbacks to its core once per period while it
// is running.
type timer struct {
	*sim.TickingComponent

	core    *Core
	ticks   uint32
	running bool
}

func newTimer(core *Core, periodUS uint32) *timer {
	t := &timer{core: core}
	t.TickingComponent = sim.NewTickingComponent(
		core.Name()+".Timer",
		core.engine,
		sim.FreqFromPeriodMicros(periodUS),
		t,
	)

	return t
}

// Tick fires the timer callback. The timer keeps ticking as long as it is not
// stopped.
func (t *timer) Tick() bool {
	if !t.running {
		return false
	}

	t.ticks++
	t.core.dispatch(TimerTick, t.ticks, 0, nil)

	return t.running
}

func (t *timer) start() {
	t.running = true
	t.TickLater()
}

func (t *timer) stop() {
	t.running = false
}
