package table

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EntryOffset returns the word offset of the first word of a row. The result
// wraps for rows whose end lies beyond the 32-bit word space; FetchEntryInto
// refuses those rows.
func EntryOffset(h Header, row uint32) uint32 {
	return HeaderWords + row*h.WordsPerEntry()
}

func entryEnd(h Header, row uint32) uint64 {
	return uint64(HeaderWords) + (uint64(row)+1)*uint64(h.WordsPerEntry())
}

// FetchEntry reads the packed words of a row.
func FetchEntry(r WordReader, h Header, row uint32) ([]uint32, error) {
	dst := make([]uint32, h.WordsPerEntry())
	if err := FetchEntryInto(dst, r, h, row); err != nil {
		return nil, err
	}

	return dst, nil
}

// FetchEntryInto reads the packed words of a row into dst, which must hold at
// least WordsPerEntry words.
func FetchEntryInto(dst []uint32, r WordReader, h Header, row uint32) error {
	if row >= h.NumRows {
		return &OutOfRangeError{Row: row, NumRows: h.NumRows}
	}

	n := h.WordsPerEntry()
	if uint32(len(dst)) < n {
		return fmt.Errorf("entry needs %d words, got %d", n, len(dst))
	}

	if entryEnd(h, row) > math.MaxUint32 {
		return &OutOfRangeError{Row: row, NumRows: h.NumRows}
	}

	if err := r.ReadWords(EntryOffset(h, row), dst[:n]); err != nil {
		return fmt.Errorf("reading row %d: %w", row, err)
	}

	return nil
}

// FetchRawString interprets the region from its first byte as a
// NUL-terminated string in the native byte order of the node. At most maxLen
// bytes are returned. It is only meant for diagnostics.
func FetchRawString(r WordReader, maxLen uint32) (string, error) {
	buf := make([]byte, 0, maxLen)

	var word [1]uint32
	var raw [BytesPerWord]byte
	for offset := uint32(0); uint32(len(buf)) < maxLen; offset++ {
		if err := r.ReadWords(offset, word[:]); err != nil {
			return string(buf), fmt.Errorf("reading raw string: %w", err)
		}

		binary.LittleEndian.PutUint32(raw[:], word[0])
		for _, c := range raw {
			if c == 0 || uint32(len(buf)) == maxLen {
				return string(buf), nil
			}

			buf = append(buf, c)
		}
	}

	return string(buf), nil
}
