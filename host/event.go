package host

import (
	"fmt"

	"github.com/sarchlab/tablevertex/sim"
)

// EventKind is a kind of event that the core can bind a callback to.
type EventKind int

// The events delivered by the host.
const (
	MCPacketReceived EventKind = iota
	SDPPacketReceived
	DMATransferDone
	TimerTick
	UserEvent
	numEventKinds
)

func (k EventKind) String() string {
	switch k {
	case MCPacketReceived:
		return "MCPacketReceived"
	case SDPPacketReceived:
		return "SDPPacketReceived"
	case DMATransferDone:
		return "DMATransferDone"
	case TimerTick:
		return "TimerTick"
	case UserEvent:
		return "UserEvent"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// A Callback handles an event. The meaning of the arguments depends on the
// event: key and payload for packets, the tick count for the timer.
type Callback func(arg0, arg1 uint32)

// An SDPCallback handles a control message from the host.
type SDPCallback func(msg *SDPMessage)

// SDPMessage is a control message sent from the host machine to a core.
type SDPMessage struct {
	Command uint16
	Args    [3]uint32
	Data    []byte
}

type callbackEntry struct {
	cb       Callback
	sdpCB    SDPCallback
	priority int
}

type callbackEvent struct {
	*sim.EventBase
	kind EventKind
	arg0 uint32
	arg1 uint32
	sdp  *SDPMessage
}

func newCallbackEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	kind EventKind,
	priority int,
) *callbackEvent {
	evt := &callbackEvent{
		EventBase: sim.NewEventBase(time, handler),
		kind:      kind,
	}
	evt.SetPriority(priority)

	return evt
}
