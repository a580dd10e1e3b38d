package memory

import (
	"encoding/binary"
)

// A Region is a bounds-checked window over a part of the storage. All offsets
// are relative to the start of the region and are counted in words unless
// stated otherwise.
type Region struct {
	storage *Storage
	id      RegionID
	base    uint64
	size    uint64
}

// NewRegion creates a window of size bytes starting at base.
func NewRegion(storage *Storage, id RegionID, base, size uint64) *Region {
	return &Region{
		storage: storage,
		id:      id,
		base:    base,
		size:    size,
	}
}

// ID returns which region of the data specification the window covers.
func (r *Region) ID() RegionID {
	return r.id
}

// Address returns the absolute address of the first byte of the region.
func (r *Region) Address() uint64 {
	return r.base
}

// Size returns the size of the region in bytes.
func (r *Region) Size() uint64 {
	return r.size
}

// NumWords returns the number of whole words in the region.
func (r *Region) NumWords() uint32 {
	return uint32(r.size / WordSize)
}

func (r *Region) checkWords(offset uint32, n int) error {
	start := uint64(offset) * WordSize
	length := uint64(n) * WordSize

	if start > r.size || length > r.size-start {
		return &AccessError{
			Addr:  r.base + start,
			Len:   length,
			Limit: r.base + r.size,
		}
	}

	return nil
}

// ReadWord reads the word at the given word offset.
func (r *Region) ReadWord(offset uint32) (uint32, error) {
	if err := r.checkWords(offset, 1); err != nil {
		return 0, err
	}

	return r.storage.ReadWord(r.base + uint64(offset)*WordSize)
}

// ReadWords fills dst with consecutive words starting at the word offset.
func (r *Region) ReadWords(offset uint32, dst []uint32) error {
	if err := r.checkWords(offset, len(dst)); err != nil {
		return err
	}

	var buf [WordSize]byte
	addr := r.base + uint64(offset)*WordSize
	for i := range dst {
		if err := r.storage.Read(addr, buf[:]); err != nil {
			return err
		}

		dst[i] = binary.LittleEndian.Uint32(buf[:])
		addr += WordSize
	}

	return nil
}

// WriteWords stores words starting at the word offset.
func (r *Region) WriteWords(offset uint32, words []uint32) error {
	if err := r.checkWords(offset, len(words)); err != nil {
		return err
	}

	return r.storage.WriteWords(r.base+uint64(offset)*WordSize, words)
}
