package vertex

import (
	"fmt"

	"github.com/sarchlab/tablevertex/memory"
	"github.com/sarchlab/tablevertex/table"
)

// An Image describes the content of the SDRAM that a vertex starts from: the
// run configuration, the table, and the recording channels.
type Image struct {
	TimerPeriod uint32
	Ticks       uint32
	Infinite    bool

	NumCols    uint32
	TypeFlags  uint32
	EntryWidth uint32
	Entries    [][]byte

	// ChannelSizes holds the buffer size of each recording channel in bytes.
	ChannelSizes []uint32
}

// Header returns the table header of the image.
func (img Image) Header() table.Header {
	return table.Header{
		NumCols:        img.NumCols,
		NumRows:        uint32(len(img.Entries)),
		EntryByteWidth: img.EntryWidth,
		TypeFlags:      img.TypeFlags,
	}
}

// Write lays out the data specification of the image at base. Entries are
// padded with NUL bytes or truncated to the entry width. It returns the first
// address after the image.
func (img Image) Write(storage *memory.Storage, base uint64) (uint64, error) {
	h := img.Header()
	if err := h.Validate(); err != nil {
		return 0, err
	}

	input := make([]uint32, table.HeaderWords,
		table.HeaderWords+int(h.NumRows*h.WordsPerEntry()))
	input[0] = h.NumCols
	input[1] = h.NumRows
	input[2] = h.EntryByteWidth
	input[3] = h.TypeFlags

	entry := make([]byte, h.EntryByteWidth)
	words := make([]uint32, h.WordsPerEntry())
	for row, e := range img.Entries {
		clear(entry)
		copy(entry, e)

		if err := table.EncodeEntryInto(words, entry); err != nil {
			return 0, fmt.Errorf("encoding row %d: %w", row, err)
		}

		input = append(input, words...)
	}

	infinite := uint32(0)
	if img.Infinite {
		infinite = 1
	}

	output := make([]uint32, 0, 1+len(img.ChannelSizes))
	output = append(output, uint32(len(img.ChannelSizes)))
	output = append(output, img.ChannelSizes...)

	w := memory.NewDataSpecWriter(storage, base)
	w.SetRegion(memory.SystemRegion, []uint32{
		ApplicationNameHash, img.TimerPeriod, infinite, img.Ticks,
	})
	w.SetRegion(memory.InputData, input)
	w.SetRegion(memory.OutputData, output)

	return w.Write()
}
