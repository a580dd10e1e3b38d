package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tablevertex/datarecording"
)

var dumpCmd = &cobra.Command{
	Use:   "dump DATABASE",
	Short: "List the entries recorded by a run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := cmd.Flags().GetInt("channel")
		if err != nil {
			return err
		}

		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		if _, err := os.Stat(args[0]); err != nil {
			return err
		}

		reader := datarecording.NewReader(args[0])
		defer reader.Close()

		return dump(cmd.Context(), reader, channel, limit, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Int("channel", -1, "Only list one channel.")
	dumpCmd.Flags().Int("limit", 0, "Maximum number of entries to list.")
}

func dump(
	ctx context.Context,
	reader datarecording.DataReader,
	channel, limit int,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tables, err := reader.StoredTables(ctx)
	if err != nil {
		return err
	}

	if slices.Contains(tables, datarecording.RunInfoTable) {
		if err := dumpRunInfo(ctx, reader, out); err != nil {
			return err
		}
	}

	if !slices.Contains(tables, datarecording.EntryTable) {
		fmt.Fprintln(out, "No entries recorded")
		return nil
	}

	params := datarecording.QueryParams{
		OrderBy: "Time, Channel",
		Limit:   limit,
	}
	if channel >= 0 {
		params.Where = "Channel = ?"
		params.Args = []any{channel}
	}

	rows, total, err := datarecording.ReadEntries(
		ctx, reader, datarecording.EntryTable, params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tTIME\tLENGTH\tHEX\tTEXT")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%q\n",
			r.Channel, r.Time, r.Length, r.Hex, r.Text)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%d of %d entries\n", len(rows), total)

	return nil
}

func dumpRunInfo(
	ctx context.Context,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	reader.MapTable(datarecording.RunInfoTable, datarecording.RunInfo{})

	results, _, err := reader.Query(ctx, datarecording.RunInfoTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range results {
		info := r.(*datarecording.RunInfo)
		fmt.Fprintf(w, "%s:\t%s\n", info.Property, info.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)

	return nil
}
