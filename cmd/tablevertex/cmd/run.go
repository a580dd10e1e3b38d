package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tablevertex/datarecording"
	"github.com/sarchlab/tablevertex/host"
	"github.com/sarchlab/tablevertex/memory"
	"github.com/sarchlab/tablevertex/monitoring"
	"github.com/sarchlab/tablevertex/sim"
	"github.com/sarchlab/tablevertex/vertex"
)

var runCmd = &cobra.Command{
	Use:   "run IMAGE",
	Short: "Run an SDRAM image on a simulated core.",
	Long: "The core runs for the number of ticks in the image, then pauses. " +
		"It can be resumed a number of times, or from the monitoring " +
		"dashboard. The recorded entries are stored in a SQLite database.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		return runImage(args[0], data, opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Uint32("ticks", 0,
		"Override the number of ticks in the image. 0 keeps the image value.")
	runCmd.Flags().Int("resumes", 0, "Number of times to resume the core.")
	runCmd.Flags().Bool("monitor", false, "Serve the monitoring dashboard.")
	runCmd.Flags().Int("port", 0, "Port of the monitoring server.")
	runCmd.Flags().Bool("open-browser", false, "Open the dashboard.")
	runCmd.Flags().String("db", "", "Name of the recording database.")
	runCmd.Flags().Bool("trace", false, "Log every event to stderr.")
	runCmd.Flags().BoolP("verbose", "v", false, "Print the core log as it runs.")
}

type runOptions struct {
	ticks       uint32
	resumes     int
	monitor     bool
	port        int
	openBrowser bool
	db          string
	trace       bool
	verbose     bool
}

func runOptionsFromFlags(cmd *cobra.Command) (opts runOptions, err error) {
	flags := cmd.Flags()

	if opts.ticks, err = flags.GetUint32("ticks"); err != nil {
		return opts, err
	}
	if opts.resumes, err = flags.GetInt("resumes"); err != nil {
		return opts, err
	}
	if opts.monitor, err = flags.GetBool("monitor"); err != nil {
		return opts, err
	}
	if opts.port, err = flags.GetInt("port"); err != nil {
		return opts, err
	}
	if opts.openBrowser, err = flags.GetBool("open-browser"); err != nil {
		return opts, err
	}
	if opts.db, err = flags.GetString("db"); err != nil {
		return opts, err
	}
	if opts.trace, err = flags.GetBool("trace"); err != nil {
		return opts, err
	}
	if opts.verbose, err = flags.GetBool("verbose"); err != nil {
		return opts, err
	}

	return opts, nil
}

type resumeReq struct {
	ticks    uint32
	infinite bool
}

func runImage(name string, data []byte, opts runOptions, out io.Writer) error {
	engine := sim.NewSerialEngine()
	if opts.trace {
		engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	capacity := max(16*memory.MB, uint64(len(data))+memory.MB)
	builder := host.MakeBuilder().
		WithEngine(engine).
		WithSDRAMCapacity(capacity)
	if opts.verbose {
		builder = builder.WithLogMirror(out)
	}
	core := builder.Build("Core")

	if err := core.SDRAM().Write(0, data); err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	recorder := datarecording.New(opts.db)
	defer recorder.Close()

	sink := datarecording.NewEntrySink(recorder, datarecording.EntryTable)
	runInfo := datarecording.NewRunRecorder(recorder)
	runInfo.Start()
	runInfo.Set("Image", name)

	cfg := vertex.DefaultConfig()
	cfg.Sink = sink

	app := vertex.Setup(core, cfg)
	if opts.ticks > 0 {
		app.Simulation.SetRuntime(opts.ticks, false)
	}

	var (
		monitor *monitoring.Monitor
		bar     *monitoring.ProgressBar
		resumes chan resumeReq
	)
	if opts.monitor {
		monitor, bar, resumes = startMonitor(engine, core, app, opts)
		defer monitor.StopServer()
	}

	app.Run()

	for i := 0; i < opts.resumes; i++ {
		if bar != nil {
			bar.Reset(uint64(app.Simulation.Ticks()))
		}

		app.Resume(app.Simulation.Ticks(), false)
	}

	if opts.monitor {
		waitForResumes(app, bar, resumes)
	}

	app.Stop()

	runInfo.Set("Timer Period", strconv.FormatUint(uint64(app.Timing.TimerPeriod), 10))
	runInfo.Set("Ticks", strconv.FormatUint(uint64(app.Simulation.Ticks()), 10))
	runInfo.Set("Timer Ticks", strconv.FormatUint(uint64(core.TimerTicks()), 10))
	runInfo.Set("Packets", strconv.FormatUint(app.Vertex.Packets(), 10))
	runInfo.End()

	if !opts.verbose {
		fmt.Fprint(out, core.IOBuf().String())
	}

	fmt.Fprintf(out, "Recorded %d entries\n", sink.Count())

	return nil
}

func startMonitor(
	engine sim.Engine,
	core *host.Core,
	app *vertex.App,
	opts runOptions,
) (*monitoring.Monitor, *monitoring.ProgressBar, chan resumeReq) {
	resumes := make(chan resumeReq, 1)

	monitor := monitoring.NewMonitor().
		WithPortNumber(opts.port).
		WithBrowser(opts.openBrowser)
	monitor.RegisterEngine(engine)
	monitor.RegisterComponent(core)
	monitor.RegisterComponent(app.Vertex)
	monitor.RegisterResumer(func(ticks uint32, infinite bool) error {
		select {
		case resumes <- resumeReq{ticks, infinite}:
			return nil
		default:
			return errors.New("a resume is already pending")
		}
	})

	bar := monitor.CreateProgressBar("Ticks", uint64(app.Simulation.Ticks()))
	engine.AcceptHook(&monitoring.TickProgress{
		Bar:     bar,
		Handler: core.Name() + ".Timer",
	})

	monitor.StartServer()

	return monitor, bar, resumes
}

// waitForResumes resumes the core on requests from the dashboard until the
// program is interrupted.
func waitForResumes(
	app *vertex.App,
	bar *monitoring.ProgressBar,
	resumes chan resumeReq,
) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	fmt.Fprintln(os.Stderr,
		"Core paused. Resume it from the dashboard, or press Ctrl-C to stop.")

	for {
		select {
		case req := <-resumes:
			bar.Reset(uint64(req.ticks))
			app.Resume(req.ticks, req.infinite)
		case <-interrupt:
			return
		}
	}
}
