package sim

import (
	"log"
	"reflect"
)

// LogHookBase provides the logger of the hooks that write what happens in a
// simulation.
type LogHookBase struct {
	*log.Logger
}

// EventLogger is an hook that prints the event information
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger
	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	comp, ok := evt.Handler().(Named)
	if ok {
		h.Printf("%.10f, %s (p%d) -> %s",
			evt.Time(), reflect.TypeOf(evt), evt.Priority(), comp.Name())
	} else {
		h.Printf("%.10f, %s (p%d)",
			evt.Time(), reflect.TypeOf(evt), evt.Priority())
	}
}
