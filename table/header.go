// Package table reads the tabular dataset that the host places in the input
// region. The region starts with a 4-word header followed by the rows of the
// table, one fixed-width entry per row.
package table

import (
	"fmt"
	"math"
)

// HeaderWords is the number of words in the header.
const HeaderWords = 4

// MaxColumns is the number of columns that the type flags can describe.
const MaxColumns = 32

// BytesPerWord is the number of bytes packed into one word of an entry.
const BytesPerWord = 4

// A WordReader provides word-granular read access to a region.
type WordReader interface {
	// ReadWords fills dst with the words starting at the word offset.
	ReadWords(offset uint32, dst []uint32) error
}

// ColumnType tells how the data of a column is encoded.
type ColumnType int

// The column types supported by the type flags.
const (
	StringColumn ColumnType = iota
	IntegerColumn
)

func (t ColumnType) String() string {
	if t == IntegerColumn {
		return "integer"
	}

	return "string"
}

// Header describes the table in the input region.
type Header struct {
	NumCols        uint32
	NumRows        uint32
	EntryByteWidth uint32

	// TypeFlags has bit i cleared if column i holds strings and set if it
	// holds integers.
	TypeFlags uint32
}

// DecodeHeader reads the header from the first 4 words of the region.
func DecodeHeader(r WordReader) (Header, error) {
	var words [HeaderWords]uint32
	if err := r.ReadWords(0, words[:]); err != nil {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}

	h := Header{
		NumCols:        words[0],
		NumRows:        words[1],
		EntryByteWidth: words[2],
		TypeFlags:      words[3],
	}

	if err := h.Validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

// Validate checks the header against the layout rules.
func (h Header) Validate() error {
	if h.NumCols > MaxColumns {
		return &MalformedHeaderError{
			Field:  "num_cols",
			Value:  h.NumCols,
			Reason: fmt.Sprintf("at most %d columns are supported", MaxColumns),
		}
	}

	if err := validateWidth(h.EntryByteWidth); err != nil {
		return err
	}

	if h.NumRows > 0 && entryEnd(h, h.NumRows-1) > math.MaxUint32 {
		return &MalformedHeaderError{
			Field:  "num_rows",
			Value:  h.NumRows,
			Reason: "table does not fit in the 32-bit word space",
		}
	}

	return nil
}

func validateWidth(width uint32) error {
	if width == 0 {
		return &MalformedHeaderError{
			Field:  "entry_byte_width",
			Value:  width,
			Reason: "must not be zero",
		}
	}

	if width%BytesPerWord != 0 {
		return &MalformedHeaderError{
			Field:  "entry_byte_width",
			Value:  width,
			Reason: "must be a multiple of 4",
		}
	}

	return nil
}

// WordsPerEntry returns the number of words that one entry occupies.
func (h Header) WordsPerEntry() uint32 {
	return h.EntryByteWidth / BytesPerWord
}

// ColumnType returns the type of column i. Columns beyond the ones described
// by the flags are reported as strings.
func (h Header) ColumnType(i int) ColumnType {
	if i < 0 || i >= MaxColumns {
		return StringColumn
	}

	if h.TypeFlags&(1<<uint(i)) != 0 {
		return IntegerColumn
	}

	return StringColumn
}

func (h Header) String() string {
	return fmt.Sprintf(
		"cols=%d rows=%d entry_byte_width=%d flags=0x%08x",
		h.NumCols, h.NumRows, h.EntryByteWidth, h.TypeFlags)
}
