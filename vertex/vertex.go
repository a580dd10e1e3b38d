// Package vertex implements an application that runs on a single simulated
// core. On its first tick it reads a table from the input region, fetches one
// row, and records it. It then keeps ticking until the configured run time is
// over and waits to be resumed by the host.
package vertex

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/tablevertex/table"
)

var (
	// ErrStartup is reported when the data specification or the simulation
	// interface cannot be set up.
	ErrStartup = errors.New("startup failed")

	// ErrRecordingInit is reported when the recording region cannot be read.
	ErrRecordingInit = errors.New("recording initialisation failed")
)

// Lifecycle is the simulation interface that decides when a run ends.
type Lifecycle interface {
	Ticks() uint32
	Infinite() bool
	HandlePauseResume(resume func())
}

// Recorder stores data on recording channels.
type Recorder interface {
	Record(channel int, data []byte) bool
	DoTimestepUpdate(time uint32)
	Finalise()
	Reset()
}

// Identity locates the core that runs a vertex.
type Identity interface {
	ChipID() uint32
	CoreID() uint32
}

// State is the state of a vertex.
type State int

// The states of a vertex.
const (
	StateUninitialized State = iota
	StateRunning
	StateFinalizing
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateFinalizing:
		return "finalizing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status tells the host what a tick did with the run.
type Status int

// The results of a tick.
const (
	StatusRunning Status = iota
	StatusSuspended
)

// A Vertex is the application running on a core.
type Vertex struct {
	name string
	cfg  Config
	ctx  *Context

	lifecycle Lifecycle
	recorder  Recorder
	flags     uint32
	input     table.WordReader
	identity  Identity
	logger    *log.Logger
	onFatal   func(err error)

	state   State
	packets uint64
}

// Name returns the name of the vertex.
func (v *Vertex) Name() string {
	return v.name
}

// Context returns the shared state of the vertex.
func (v *Vertex) Context() *Context {
	return v.ctx
}

// State returns the state of the vertex.
func (v *Vertex) State() State {
	return v.state
}

// RecordingFlags returns the enabled recording channels.
func (v *Vertex) RecordingFlags() uint32 {
	return v.flags
}

// Packets returns how many multicast packets have arrived.
func (v *Vertex) Packets() uint64 {
	return v.packets
}

// Start resets the clock and makes the vertex accept ticks.
func (v *Vertex) Start() {
	v.ctx.ResetClock()
	v.state = StateRunning
	v.logger.Printf("vertex %s: running", v.name)
}

// Update advances the clock by one tick. When the run time is over, the
// recording is finalised and the vertex pauses until Resume is called.
func (v *Vertex) Update() Status {
	if v.state != StateRunning {
		return StatusSuspended
	}

	v.ctx.Time++

	if !v.lifecycle.Infinite() && v.ctx.Time >= v.lifecycle.Ticks() {
		v.finish()
		return StatusSuspended
	}

	if v.ctx.Time == v.cfg.HeaderTick {
		v.retrieveData()
	} else if v.ctx.Time == v.cfg.DiagnosticTick {
		v.logRawInput()
	}

	if v.flags > 0 {
		v.recorder.DoTimestepUpdate(v.ctx.Time)
	}

	return StatusRunning
}

func (v *Vertex) finish() {
	v.state = StateFinalizing
	v.logger.Printf("simulation complete at tick %d", v.ctx.Time)

	if v.flags > 0 {
		v.logger.Printf("updating recording regions")
		v.recorder.Finalise()
	}

	v.state = StatePaused
	v.lifecycle.HandlePauseResume(v.Resume)
}

// Resume puts the clock back before the first tick and continues the
// vertex. It is called by the simulation interface when the host resumes the
// core.
func (v *Vertex) Resume() {
	v.ctx.ResetClock()

	if v.flags > 0 {
		v.recorder.Reset()
	}

	v.state = StateRunning
	v.logger.Printf("vertex %s: resumed", v.name)
}

// ReceiveData handles a multicast packet. Packets carry no data that the
// vertex uses; they are only counted.
func (v *Vertex) ReceiveData(key, payload uint32) {
	v.packets++
}

func (v *Vertex) retrieveData() {
	h, err := v.ctx.LoadHeader(v.input)
	if err != nil {
		v.fatal(fmt.Errorf("loading header: %w", err))
		return
	}

	v.logger.Printf("header: %s", h)

	if v.identity != nil {
		v.logger.Printf("chip 0x%04x core %d",
			v.identity.ChipID(), v.identity.CoreID())
	}

	words, err := table.FetchEntry(v.input, h, v.cfg.DemoRow)
	if err != nil {
		v.fatal(fmt.Errorf("fetching row %d: %w", v.cfg.DemoRow, err))
		return
	}

	entry, err := table.DecodeEntry(words, h.EntryByteWidth)
	if err != nil {
		v.fatal(fmt.Errorf("decoding row %d: %w", v.cfg.DemoRow, err))
		return
	}

	v.logger.Printf("row %d: %q", v.cfg.DemoRow, table.TrimEntry(entry))

	v.recordEntry(entry)
}

func (v *Vertex) recordEntry(entry []byte) {
	if v.recorder.Record(v.cfg.RecordingChannel, entry) {
		v.logger.Printf("recorded %d bytes on channel %d",
			len(entry), v.cfg.RecordingChannel)
		return
	}

	v.logger.Printf("failed to record %d bytes on channel %d",
		len(entry), v.cfg.RecordingChannel)
}

func (v *Vertex) logRawInput() {
	s, err := table.FetchRawString(v.input, v.cfg.RawStringMaxLen)
	if err != nil {
		v.logger.Printf("raw input: %v", err)
	}

	v.logger.Printf("raw input: %q", s)
}

func (v *Vertex) fatal(err error) {
	v.logger.Printf("[ERROR] %v", err)
	v.onFatal(err)
}

// Builder can build vertices.
type Builder struct {
	cfg       Config
	ctx       *Context
	lifecycle Lifecycle
	recorder  Recorder
	flags     uint32
	input     table.WordReader
	identity  Identity
	logger    *log.Logger
	onFatal   func(err error)
}

// MakeBuilder returns a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: DefaultConfig(),
	}
}

// WithConfig sets the configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithContext sets the shared state. A new context is created if not set.
func (b Builder) WithContext(ctx *Context) Builder {
	b.ctx = ctx
	return b
}

// WithLifecycle sets the simulation interface.
func (b Builder) WithLifecycle(l Lifecycle) Builder {
	b.lifecycle = l
	return b
}

// WithRecorder sets the recorder and the channels it has enabled.
func (b Builder) WithRecorder(r Recorder, flags uint32) Builder {
	b.recorder = r
	b.flags = flags
	return b
}

// WithInput sets the region that holds the table.
func (b Builder) WithInput(r table.WordReader) Builder {
	b.input = r
	return b
}

// WithIdentity sets the core that runs the vertex.
func (b Builder) WithIdentity(id Identity) Builder {
	b.identity = id
	return b
}

// WithLogger sets the logger. Messages are discarded if not set.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithFatalHandler sets the function called on unrecoverable errors. The
// default panics.
func (b Builder) WithFatalHandler(f func(err error)) Builder {
	b.onFatal = f
	return b
}

// Build creates a vertex.
func (b Builder) Build(name string) *Vertex {
	if b.lifecycle == nil {
		log.Panic("lifecycle is not set")
	}

	if b.recorder == nil {
		log.Panic("recorder is not set")
	}

	if b.input == nil {
		log.Panic("input region is not set")
	}

	v := &Vertex{
		name:      name,
		cfg:       b.cfg,
		ctx:       b.ctx,
		lifecycle: b.lifecycle,
		recorder:  b.recorder,
		flags:     b.flags,
		input:     b.input,
		identity:  b.identity,
		logger:    b.logger,
		onFatal:   b.onFatal,
	}

	if v.ctx == nil {
		v.ctx = NewContext()
	}

	if v.logger == nil {
		v.logger = log.New(io.Discard, "", 0)
	}

	if v.onFatal == nil {
		v.onFatal = func(err error) { log.Panic(err) }
	}

	return v
}
