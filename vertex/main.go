package vertex

import (
	"fmt"

	"github.com/sarchlab/tablevertex/host"
	"github.com/sarchlab/tablevertex/memory"
	"github.com/sarchlab/tablevertex/recording"
	"github.com/sarchlab/tablevertex/simulation"
)

// An App is a vertex set up on a core, together with the simulation
// interface and the recorder that serve it.
type App struct {
	Vertex     *Vertex
	Simulation *simulation.Simulation
	Recorder   *recording.Recorder
	Timing     simulation.Timing

	core *host.Core
}

// Main sets up the vertex on a core and runs it. Errors are fatal and stop
// the core through its runtime error handler.
func Main(core *host.Core, cfg Config) {
	app := Setup(core, cfg)
	app.Run()
}

// Setup reads the data specification of the core, initialises the
// simulation interface and the recording channels, and binds the callbacks.
// The returned app is ready to run.
func Setup(core *host.Core, cfg Config) *App {
	logger := core.Logger()
	logger.Printf("starting table vertex %s", core.Name())

	app := &App{core: core}
	ds := memory.NewDataSpec(core.SDRAM(), core.DataSpecAddress())

	app.Simulation = simulation.New(core)
	timing, err := initialize(ds, app.Simulation, cfg)
	if err != nil {
		core.RTError(host.RTESWErr, fmt.Errorf("%w: %w", ErrStartup, err))
		return nil
	}
	app.Timing = timing

	input, err := ds.Region(memory.InputData)
	if err != nil {
		core.RTError(host.RTESWErr, fmt.Errorf("%w: %w", ErrStartup, err))
		return nil
	}

	app.Recorder = recording.NewRecorder(cfg.Sink, logger)
	flags, err := initializeRecording(ds, app.Recorder)
	if err != nil {
		core.RTError(host.RTESWErr,
			fmt.Errorf("%w: %w", ErrRecordingInit, err))
		return nil
	}
	logger.Printf("recording flags = 0x%08x", flags)

	core.SetTimerTick(timing.TimerPeriod)

	app.Vertex = MakeBuilder().
		WithConfig(cfg).
		WithLifecycle(app.Simulation).
		WithRecorder(app.Recorder, flags).
		WithInput(input).
		WithIdentity(core).
		WithLogger(logger).
		WithFatalHandler(func(err error) {
			core.RTError(host.RTESWErr, err)
		}).
		Build(core.Name() + ".Vertex")

	core.CallbackOn(host.MCPacketReceived, app.Vertex.ReceiveData,
		cfg.MCPriority)
	core.CallbackOn(host.TimerTick, func(_, _ uint32) {
		app.Vertex.Update()
	}, cfg.TimerPriority)

	app.Vertex.Start()

	return app
}

func initialize(
	ds *memory.DataSpec,
	sim *simulation.Simulation,
	cfg Config,
) (simulation.Timing, error) {
	if err := ds.ReadHeader(); err != nil {
		return simulation.Timing{}, err
	}

	system, err := ds.Region(memory.SystemRegion)
	if err != nil {
		return simulation.Timing{}, err
	}

	return sim.Initialise(system, cfg.AppHash, cfg.SDPPriority, cfg.DMAPriority)
}

func initializeRecording(
	ds *memory.DataSpec,
	r *recording.Recorder,
) (uint32, error) {
	output, err := ds.Region(memory.OutputData)
	if err != nil {
		return 0, err
	}

	return r.Initialize(output)
}

// Run processes events until the vertex pauses or the core stops.
func (a *App) Run() {
	a.core.Logger().Printf("starting simulation")

	if err := a.Simulation.Run(); err != nil {
		a.core.RTError(host.RTEAbort, err)
	}
}

// Resume resumes a paused app for the given number of ticks and runs it until
// it pauses again. It goes through the same control messages as the host.
func (a *App) Resume(ticks uint32, infinite bool) {
	inf := uint32(0)
	if infinite {
		inf = 1
	}

	a.core.DeliverSDP(&host.SDPMessage{
		Command: simulation.CommandRuntime,
		Args:    [3]uint32{ticks, inf, 0},
	})
	a.core.DeliverSDP(&host.SDPMessage{Command: simulation.CommandResume})

	a.Run()
}

// Stop sends the stop message to the core and processes it.
func (a *App) Stop() {
	a.core.DeliverSDP(&host.SDPMessage{Command: simulation.CommandStop})

	if err := a.core.Run(); err != nil {
		a.core.RTError(host.RTEAbort, err)
	}
}
