package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tablevertex/memory"
	"github.com/sarchlab/tablevertex/table"
	"github.com/sarchlab/tablevertex/vertex"
)

var packCmd = &cobra.Command{
	Use:   "pack TABLE.csv IMAGE",
	Short: "Pack a CSV table into an SDRAM image.",
	Long: "Each CSV record becomes one entry: the cells are joined with " +
		"commas and the result is padded with NUL bytes, or truncated, to " +
		"the entry width.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := packOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		img, err := imageFromCSV(in, opts)
		if err != nil {
			return err
		}

		data, err := encodeImage(img)
		if err != nil {
			return err
		}

		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return err
		}

		fmt.Printf("Packed %d rows of %d bytes into %s (%d bytes)\n",
			len(img.Entries), img.EntryWidth, args[1], len(data))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().Uint32("width", 0,
		"Entry width in bytes, a multiple of 4. "+
			"Defaults to the longest row rounded up.")
	packCmd.Flags().Uint32("ticks", 100, "Number of ticks of the first run.")
	packCmd.Flags().Uint32("timer-period", 1000, "Timer period in microseconds.")
	packCmd.Flags().Bool("infinite", false, "Run until stopped.")
	packCmd.Flags().Uint32Slice("channels", []uint32{1024},
		"Buffer size in bytes of each recording channel.")
	packCmd.Flags().Bool("header", false, "Skip the first CSV record.")
}

type packOptions struct {
	width       uint32
	ticks       uint32
	timerPeriod uint32
	infinite    bool
	channels    []uint32
	skipHeader  bool
}

func packOptionsFromFlags(cmd *cobra.Command) (opts packOptions, err error) {
	flags := cmd.Flags()

	if opts.width, err = flags.GetUint32("width"); err != nil {
		return opts, err
	}
	if opts.ticks, err = flags.GetUint32("ticks"); err != nil {
		return opts, err
	}
	if opts.timerPeriod, err = flags.GetUint32("timer-period"); err != nil {
		return opts, err
	}
	if opts.infinite, err = flags.GetBool("infinite"); err != nil {
		return opts, err
	}
	if opts.channels, err = flags.GetUint32Slice("channels"); err != nil {
		return opts, err
	}
	if opts.skipHeader, err = flags.GetBool("header"); err != nil {
		return opts, err
	}

	if opts.timerPeriod == 0 {
		return opts, fmt.Errorf("timer period must not be zero")
	}

	return opts, nil
}

// imageFromCSV reads a table and derives the column count and types from it.
// A column is an integer column if all of its cells parse as integers.
func imageFromCSV(r io.Reader, opts packOptions) (vertex.Image, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return vertex.Image{}, fmt.Errorf("reading CSV: %w", err)
	}

	if opts.skipHeader && len(records) > 0 {
		records = records[1:]
	}

	img := vertex.Image{
		TimerPeriod:  opts.timerPeriod,
		Ticks:        opts.ticks,
		Infinite:     opts.infinite,
		ChannelSizes: opts.channels,
	}

	longest := 0
	for _, rec := range records {
		entry := []byte(strings.Join(rec, ","))
		img.Entries = append(img.Entries, entry)
		longest = max(longest, len(entry))

		img.NumCols = max(img.NumCols, uint32(len(rec)))
	}

	if img.NumCols > table.MaxColumns {
		return img, fmt.Errorf("%d columns, at most %d are supported",
			img.NumCols, table.MaxColumns)
	}

	img.TypeFlags = integerColumns(records, img.NumCols)

	img.EntryWidth = opts.width
	if img.EntryWidth == 0 {
		w := uint32(max(longest, 1))
		img.EntryWidth = (w + table.BytesPerWord - 1) /
			table.BytesPerWord * table.BytesPerWord
	}

	return img, nil
}

func integerColumns(records [][]string, numCols uint32) uint32 {
	var flags uint32

	for col := uint32(0); col < numCols; col++ {
		isInt := len(records) > 0
		for _, rec := range records {
			if int(col) >= len(rec) {
				isInt = false
				break
			}

			if _, err := strconv.ParseInt(rec[col], 10, 64); err != nil {
				isInt = false
				break
			}
		}

		if isInt {
			flags |= 1 << col
		}
	}

	return flags
}

// encodeImage lays out the image at address 0 of a scratch storage and
// returns the bytes that make it up.
func encodeImage(img vertex.Image) ([]byte, error) {
	words := uint64(table.HeaderWords) +
		uint64(len(img.Entries))*uint64(img.EntryWidth/table.BytesPerWord)
	capacity := (words+uint64(len(img.ChannelSizes)))*memory.WordSize + memory.MB

	storage := memory.NewStorage(capacity)
	end, err := img.Write(storage, 0)
	if err != nil {
		return nil, err
	}

	data := make([]byte, end)
	if err := storage.Read(0, data); err != nil {
		return nil, err
	}

	return data, nil
}
