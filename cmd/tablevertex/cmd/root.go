// Package cmd provides the command-line interface of tablevertex.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tablevertex/sim"
)

// Environment variables that provide flag defaults. They can also be set in a
// .env file in the working directory.
const (
	envTicks       = "TABLEVERTEX_TICKS"
	envTimerPeriod = "TABLEVERTEX_TIMER_PERIOD_US"
	envMonitorPort = "TABLEVERTEX_MONITOR_PORT"
	envDB          = "TABLEVERTEX_DB"
)

var flagEnv = map[string]string{
	"ticks":        envTicks,
	"timer-period": envTimerPeriod,
	"port":         envMonitorPort,
	"db":           envDB,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tablevertex",
	Short: "Run the table vertex on a simulated core.",
	Long: `tablevertex packs a CSV table into an SDRAM image, runs the image ` +
		`on a simulated core, and dumps the entries that the core recorded.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadDotEnv(); err != nil {
			return err
		}

		return applyEnvDefaults(cmd.Flags())
	},
}

func init() {
	cobra.OnInitialize(selectIDGenerator)

	rootCmd.PersistentFlags().Bool("unique-ids", false,
		"Give events globally unique IDs instead of sequential ones.")
}

func selectIDGenerator() {
	unique, err := rootCmd.PersistentFlags().GetBool("unique-ids")
	if err == nil && unique {
		sim.UseParallelIDGenerator()
	}
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	return nil
}

func applyEnvDefaults(flags *pflag.FlagSet) error {
	for name, env := range flagEnv {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}

		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		if err := f.Value.Set(value); err != nil {
			return fmt.Errorf("%s=%q: %w", env, value, err)
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. The exit handlers, which flush the recording databases, run
// before the program exits.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "core stopped: %v\n", r)
			atexit.Exit(2)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
