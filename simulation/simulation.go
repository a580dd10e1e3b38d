// Package simulation implements the simulation interface of a core: it reads
// the run time from the system region, starts the event loop, and implements
// the pause and resume protocol that the host uses between runs.
package simulation

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/tablevertex/host"
)

// Layout of the system region, in words.
const (
	SystemAppHash = iota
	SystemTimerPeriod
	SystemInfiniteRun
	SystemSimulationTicks
	SystemRegionWords
)

// SDP commands that the host can send to a core.
const (
	CommandStop    uint16 = 6
	CommandRuntime uint16 = 7
	CommandResume  uint16 = 8
)

var (
	// ErrAppHashMismatch is returned when the system region was written for
	// another application.
	ErrAppHashMismatch = errors.New("application hash mismatch")

	// ErrNotPaused is returned when resuming a simulation that is not paused.
	ErrNotPaused = errors.New("simulation is not paused")
)

// WordReader provides word-granular read access to a region.
type WordReader interface {
	ReadWords(offset uint32, dst []uint32) error
}

// Host is the part of the core runtime that the simulation drives.
type Host interface {
	StartTimer()
	StopTimer()
	TimerRunning() bool
	SDPCallbackOn(cb host.SDPCallback, priority int)
	Run() error
	Logger() *log.Logger
}

// Timing is the run configuration read from the system region.
type Timing struct {
	AppHash         uint32
	TimerPeriod     uint32
	SimulationTicks uint32
	InfiniteRun     bool
}

// State is the state of the simulation interface.
type State int

// The states of the simulation interface.
const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// A Simulation controls how long a core runs and how it pauses between runs.
type Simulation struct {
	host   Host
	timing Timing
	state  State

	resumeCallback func()
	exitCallback   func()
	dmaPriority    int
}

// New creates a Simulation that drives the given host.
func New(h Host) *Simulation {
	return &Simulation{host: h}
}

// Initialise reads the system region, checks that it belongs to the
// application, and registers the handler of the host control messages.
func (s *Simulation) Initialise(
	systemRegion WordReader,
	appHash uint32,
	sdpPriority, dmaPriority int,
) (Timing, error) {
	var words [SystemRegionWords]uint32
	if err := systemRegion.ReadWords(0, words[:]); err != nil {
		return Timing{}, fmt.Errorf("reading system region: %w", err)
	}

	if words[SystemAppHash] != appHash {
		return Timing{}, fmt.Errorf("%w: expected 0x%08x, got 0x%08x",
			ErrAppHashMismatch, appHash, words[SystemAppHash])
	}

	s.timing = Timing{
		AppHash:         words[SystemAppHash],
		TimerPeriod:     words[SystemTimerPeriod],
		InfiniteRun:     words[SystemInfiniteRun] != 0,
		SimulationTicks: words[SystemSimulationTicks],
	}
	s.dmaPriority = dmaPriority

	s.host.SDPCallbackOn(s.handleSDP, sdpPriority)
	s.host.Logger().Printf(
		"simulation: timer period %d us, %d ticks, infinite %t",
		s.timing.TimerPeriod, s.timing.SimulationTicks, s.timing.InfiniteRun)

	return s.timing, nil
}

// Timing returns the current run configuration.
func (s *Simulation) Timing() Timing {
	return s.timing
}

// Ticks returns the number of ticks of the current run.
func (s *Simulation) Ticks() uint32 {
	return s.timing.SimulationTicks
}

// Infinite tells if the current run never ends by itself.
func (s *Simulation) Infinite() bool {
	return s.timing.InfiniteRun
}

// State returns the state of the simulation.
func (s *Simulation) State() State {
	return s.state
}

// SetRuntime changes the length of the next run.
func (s *Simulation) SetRuntime(ticks uint32, infinite bool) {
	s.timing.SimulationTicks = ticks
	s.timing.InfiniteRun = infinite
}

// OnExit registers a function to be called when the host stops the core.
func (s *Simulation) OnExit(f func()) {
	s.exitCallback = f
}

// Run starts the timer if needed and processes events until the core pauses
// or exits.
func (s *Simulation) Run() error {
	if s.state == StateExited {
		return nil
	}

	if s.state == StateIdle {
		s.state = StateRunning
	}

	if s.state == StateRunning && !s.host.TimerRunning() {
		s.host.StartTimer()
	}

	return s.host.Run()
}

// HandlePauseResume stops the timer and waits for the host to resume the
// simulation. The resume callback is called right before the timer restarts.
func (s *Simulation) HandlePauseResume(resume func()) {
	s.host.StopTimer()
	s.resumeCallback = resume
	s.state = StatePaused

	s.host.Logger().Printf("simulation: paused")
}

// Resume continues a paused simulation. The events are processed by the next
// call to Run, or by the running event loop if called from a callback.
func (s *Simulation) Resume() error {
	if s.state != StatePaused {
		return ErrNotPaused
	}

	if s.resumeCallback != nil {
		s.resumeCallback()
	}

	s.state = StateRunning
	s.host.StartTimer()
	s.host.Logger().Printf("simulation: resumed for %d ticks",
		s.timing.SimulationTicks)

	return nil
}

// Exit stops the core for good.
func (s *Simulation) Exit() {
	s.host.StopTimer()
	s.state = StateExited
	s.host.Logger().Printf("simulation: exiting")

	if s.exitCallback != nil {
		s.exitCallback()
	}
}

func (s *Simulation) handleSDP(msg *host.SDPMessage) {
	switch msg.Command {
	case CommandStop:
		s.Exit()
	case CommandRuntime:
		s.SetRuntime(msg.Args[0], msg.Args[1] != 0)
		s.host.Logger().Printf("simulation: new runtime %d ticks", msg.Args[0])
	case CommandResume:
		if err := s.Resume(); err != nil {
			s.host.Logger().Printf("simulation: cannot resume: %v", err)
		}
	default:
		s.host.Logger().Printf("simulation: unknown command %d", msg.Command)
	}
}
