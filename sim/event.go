package sim

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// An Event is something going to happen in the future.
type Event interface {
	// Return the time that the event should happen
	Time() VTimeInSec

	// Returns the handler that can should handle the event
	Handler() Handler

	// Priority orders the events that happen at the same time. Events with
	// a lower value are handled first. Events with the same time and the
	// same priority are handled in the order they are scheduled.
	Priority() int
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID       string
	time     VTimeInSec
	handler  Handler
	priority int
}

// NewEventBase creates a new EventBase
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler
	return e
}

// Time return the time that the event is going to happen
func (e *EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler to handle the event.
func (e *EventBase) Handler() Handler {
	return e.handler
}

// Priority returns the dispatch priority of the event.
func (e *EventBase) Priority() int {
	return e.priority
}

// SetPriority changes the dispatch priority of the event. It must be called
// before the event is scheduled.
func (e *EventBase) SetPriority(p int) {
	e.priority = p
}

// A Handler defines a domain for the events.
//
// One event is always constraint to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}
