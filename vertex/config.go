package vertex

import "github.com/sarchlab/tablevertex/recording"

// ApplicationNameHash identifies the images built for this application. The
// system region of an image must carry it.
const ApplicationNameHash uint32 = 0x7AB1E5E1

// Config holds the parameters of a vertex.
type Config struct {
	// HeaderTick is the tick on which the header is read and the demo row
	// is recorded.
	HeaderTick uint32

	// DiagnosticTick is the tick on which the raw input is logged.
	DiagnosticTick uint32

	// DemoRow is the row fetched on the header tick.
	DemoRow uint32

	// RecordingChannel is the channel the demo row is recorded on.
	RecordingChannel int

	// RawStringMaxLen bounds the diagnostic view of the input region.
	RawStringMaxLen uint32

	AppHash uint32

	// Callback priorities. Lower values run first.
	MCPriority    int
	SDPPriority   int
	DMAPriority   int
	TimerPriority int
	UserPriority  int

	// Sink receives the flushed recording data. Nil discards it.
	Sink recording.Sink
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		HeaderTick:       1,
		DiagnosticTick:   100,
		DemoRow:          0,
		RecordingChannel: 0,
		RawStringMaxLen:  256,
		AppHash:          ApplicationNameHash,
		MCPriority:       -1,
		SDPPriority:      0,
		DMAPriority:      1,
		TimerPriority:    2,
		UserPriority:     3,
	}
}
