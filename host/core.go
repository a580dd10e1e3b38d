// Package host simulates the runtime of a single processing core. The core
// owns a shared SDRAM, a timer, a bounded log buffer, and a callback table
// that maps host events to handlers with priorities. All the callbacks run on
// the event loop of a sim.Engine, one at a time and without preemption.
package host

import (
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/tablevertex/memory"
	"github.com/sarchlab/tablevertex/sim"
)

// A Core is a simulated processing core.
type Core struct {
	*sim.ComponentBase

	engine       sim.Engine
	sdram        *memory.Storage
	dataSpecAddr uint64
	chipX, chipY uint32
	coreID       uint32

	iobuf  *IOBuf
	logger *log.Logger

	callbacks [numEventKinds]*callbackEntry
	dropped   [numEventKinds]uint64
	timer     *timer
}

// Handle dispatches an event to the callback bound to its kind.
func (c *Core) Handle(e sim.Event) error {
	evt, ok := e.(*callbackEvent)
	if !ok {
		return fmt.Errorf("core %s cannot handle %T", c.Name(), e)
	}

	c.dispatch(evt.kind, evt.arg0, evt.arg1, evt.sdp)

	return nil
}

func (c *Core) dispatch(kind EventKind, arg0, arg1 uint32, sdp *SDPMessage) {
	entry := c.callbacks[kind]
	if entry == nil {
		c.dropped[kind]++
		return
	}

	if kind == SDPPacketReceived {
		entry.sdpCB(sdp)
		return
	}

	entry.cb(arg0, arg1)
}

// CallbackOn binds a callback to an event kind. Events that happen at the same
// time are handled in increasing priority value. SDP messages must be bound
// with SDPCallbackOn.
func (c *Core) CallbackOn(kind EventKind, cb Callback, priority int) {
	if kind == SDPPacketReceived {
		log.Panic("SDP callbacks must be registered with SDPCallbackOn")
	}

	if kind < 0 || kind >= numEventKinds {
		log.Panicf("unknown event kind %d", kind)
	}

	c.callbacks[kind] = &callbackEntry{cb: cb, priority: priority}

	if kind == TimerTick && c.timer != nil {
		c.timer.SetTickPriority(priority)
	}
}

// SDPCallbackOn binds a callback to the SDP messages sent to the core.
func (c *Core) SDPCallbackOn(cb SDPCallback, priority int) {
	c.callbacks[SDPPacketReceived] = &callbackEntry{
		sdpCB:    cb,
		priority: priority,
	}
}

// CallbackOff unbinds the callback of an event kind.
func (c *Core) CallbackOff(kind EventKind) {
	c.callbacks[kind] = nil
}

func (c *Core) priorityOf(kind EventKind) int {
	if entry := c.callbacks[kind]; entry != nil {
		return entry.priority
	}

	return 0
}

// SetTimerTick sets the period of the timer in microseconds.
func (c *Core) SetTimerTick(periodUS uint32) {
	running := false
	if c.timer != nil {
		running = c.timer.running
		c.timer.stop()
	}

	c.timer = newTimer(c, periodUS)
	c.timer.SetTickPriority(c.priorityOf(TimerTick))

	if running {
		c.timer.start()
	}
}

// StartTimer makes the timer deliver ticks, starting one period from now.
func (c *Core) StartTimer() {
	if c.timer == nil {
		log.Panic("timer period is not set")
	}

	c.timer.start()
}

// StopTimer stops the timer. A tick that is already scheduled is discarded.
func (c *Core) StopTimer() {
	if c.timer != nil {
		c.timer.stop()
	}
}

// TimerRunning tells if the timer is delivering ticks.
func (c *Core) TimerRunning() bool {
	return c.timer != nil && c.timer.running
}

// TimerTicks returns the number of ticks delivered since the core started.
func (c *Core) TimerTicks() uint32 {
	if c.timer == nil {
		return 0
	}

	return c.timer.ticks
}

// Run processes events until there is nothing left to do, which is the case
// once the timer is stopped and no message is pending.
func (c *Core) Run() error {
	return c.engine.Run()
}

func (c *Core) schedule(evt *callbackEvent) {
	c.engine.Schedule(evt)
}

// DeliverPacket schedules the arrival of a multicast packet.
func (c *Core) DeliverPacket(key, payload uint32) {
	evt := newCallbackEvent(c.engine.CurrentTime(), c,
		MCPacketReceived, c.priorityOf(MCPacketReceived))
	evt.arg0 = key
	evt.arg1 = payload
	c.schedule(evt)
}

// DeliverSDP schedules the arrival of a control message from the host.
func (c *Core) DeliverSDP(msg *SDPMessage) {
	evt := newCallbackEvent(c.engine.CurrentTime(), c,
		SDPPacketReceived, c.priorityOf(SDPPacketReceived))
	evt.sdp = msg
	c.schedule(evt)
}

// TriggerUserEvent schedules a user event.
func (c *Core) TriggerUserEvent(arg0, arg1 uint32) {
	evt := newCallbackEvent(c.engine.CurrentTime(), c,
		UserEvent, c.priorityOf(UserEvent))
	evt.arg0 = arg0
	evt.arg1 = arg1
	c.schedule(evt)
}

// Dropped returns how many events of a kind arrived with no callback bound.
func (c *Core) Dropped(kind EventKind) uint64 {
	return c.dropped[kind]
}

// RTError stops the core with a runtime error. It writes the error to the
// log buffer and panics with a *RuntimeError.
func (c *Core) RTError(code RTECode, err error) {
	c.StopTimer()
	c.logger.Printf("[ERROR] %s: %v", code, err)

	panic(&RuntimeError{Core: c.Name(), Code: code, Err: err})
}

// SDRAM returns the shared memory of the node.
func (c *Core) SDRAM() *memory.Storage {
	return c.sdram
}

// DataSpecAddress returns where the data specification table of the core is.
func (c *Core) DataSpecAddress() uint64 {
	return c.dataSpecAddr
}

// ChipID returns the chip coordinates packed as x<<8 | y.
func (c *Core) ChipID() uint32 {
	return c.chipX<<8 | c.chipY
}

// CoreID returns the index of the core on its chip.
func (c *Core) CoreID() uint32 {
	return c.coreID
}

// IOBuf returns the log buffer of the core.
func (c *Core) IOBuf() *IOBuf {
	return c.iobuf
}

// Logger returns the logger that writes into the log buffer.
func (c *Core) Logger() *log.Logger {
	return c.logger
}

// Engine returns the engine that runs the core.
func (c *Core) Engine() sim.Engine {
	return c.engine
}

// Builder can build cores.
type Builder struct {
	engine       sim.Engine
	sdram        *memory.Storage
	capacity     uint64
	dataSpecAddr uint64
	chipX, chipY uint32
	coreID       uint32
	iobufSize    int
	logMirror    io.Writer
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		capacity:  16 * memory.MB,
		coreID:    1,
		iobufSize: 16 * 1024,
	}
}

// WithEngine sets the engine that runs the core.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithSDRAM sets the shared memory. A new storage is created if not set.
func (b Builder) WithSDRAM(storage *memory.Storage) Builder {
	b.sdram = storage
	return b
}

// WithSDRAMCapacity sets the capacity of a newly created shared memory.
func (b Builder) WithSDRAMCapacity(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithDataSpecAddress sets where the data specification table is.
func (b Builder) WithDataSpecAddress(addr uint64) Builder {
	b.dataSpecAddr = addr
	return b
}

// WithChip sets the coordinates of the chip that hosts the core.
func (b Builder) WithChip(x, y uint32) Builder {
	b.chipX = x
	b.chipY = y
	return b
}

// WithCoreID sets the index of the core on its chip.
func (b Builder) WithCoreID(id uint32) Builder {
	b.coreID = id
	return b
}

// WithIOBufSize sets the capacity of the log buffer in bytes.
func (b Builder) WithIOBufSize(size int) Builder {
	b.iobufSize = size
	return b
}

// WithLogMirror copies everything written to the log buffer to w.
func (b Builder) WithLogMirror(w io.Writer) Builder {
	b.logMirror = w
	return b
}

// Build creates a core.
func (b Builder) Build(name string) *Core {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	c := &Core{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		sdram:         b.sdram,
		dataSpecAddr:  b.dataSpecAddr,
		chipX:         b.chipX,
		chipY:         b.chipY,
		coreID:        b.coreID,
		iobuf:         NewIOBuf(b.iobufSize),
	}

	if c.sdram == nil {
		c.sdram = memory.NewStorage(b.capacity)
	}

	var out io.Writer = c.iobuf
	if b.logMirror != nil {
		out = io.MultiWriter(c.iobuf, b.logMirror)
	}
	c.logger = log.New(out, "", 0)

	return c
}
