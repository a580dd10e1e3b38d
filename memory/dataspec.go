package memory

import (
	"errors"
	"fmt"
	"sort"
)

// RegionID identifies a region in the data specification table.
type RegionID uint32

// The regions used by the table vertex.
const (
	SystemRegion RegionID = iota
	InputData
	OutputData
)

func (id RegionID) String() string {
	switch id {
	case SystemRegion:
		return "SystemRegion"
	case InputData:
		return "InputData"
	case OutputData:
		return "OutputData"
	default:
		return fmt.Sprintf("Region%d", uint32(id))
	}
}

// Layout of the data specification header.
const (
	DataSpecMagic   uint32 = 0xAD130AD6
	DataSpecVersion uint32 = 0x00010000
	MaxRegions             = 32

	dataSpecHeaderWords = 2 + MaxRegions
)

var (
	// ErrBadMagic is returned when the header does not start with the magic
	// number.
	ErrBadMagic = errors.New("data specification magic number mismatch")

	// ErrBadVersion is returned when the header version is not supported.
	ErrBadVersion = errors.New("unsupported data specification version")

	// ErrHeaderNotRead is returned when regions are requested before the
	// header is validated.
	ErrHeaderNotRead = errors.New("data specification header not read")

	// ErrRegionNotAllocated is returned for regions with no memory.
	ErrRegionNotAllocated = errors.New("region not allocated")
)

// A DataSpec is the table of regions written into the SDRAM by the host
// before the core starts. The table starts with a magic number and a version,
// followed by the absolute address of each region. An address of 0 means that
// the region is not allocated.
type DataSpec struct {
	storage  *Storage
	base     uint64
	pointers [MaxRegions]uint64
	isRead   bool
}

// NewDataSpec creates a reader for the table located at base.
func NewDataSpec(storage *Storage, base uint64) *DataSpec {
	return &DataSpec{
		storage: storage,
		base:    base,
	}
}

// Address returns where the table lives in the storage.
func (d *DataSpec) Address() uint64 {
	return d.base
}

// ReadHeader validates the table and loads the region addresses.
func (d *DataSpec) ReadHeader() error {
	header := NewRegion(d.storage, 0, d.base, dataSpecHeaderWords*WordSize)

	words := make([]uint32, dataSpecHeaderWords)
	if err := header.ReadWords(0, words); err != nil {
		return fmt.Errorf("reading data specification header: %w", err)
	}

	if words[0] != DataSpecMagic {
		return fmt.Errorf("%w: got 0x%08x", ErrBadMagic, words[0])
	}

	if words[1] != DataSpecVersion {
		return fmt.Errorf("%w: got 0x%08x", ErrBadVersion, words[1])
	}

	for i := range d.pointers {
		d.pointers[i] = uint64(words[2+i])
	}
	d.isRead = true

	return nil
}

// Region returns a bounds-checked view of a region. A region extends up to
// the start of the next allocated region, or to the end of the storage.
func (d *DataSpec) Region(id RegionID) (*Region, error) {
	if !d.isRead {
		return nil, ErrHeaderNotRead
	}

	if uint32(id) >= MaxRegions || d.pointers[id] == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotAllocated, id)
	}

	start := d.pointers[id]
	end := d.storage.Capacity()
	for _, p := range d.pointers {
		if p > start && p < end {
			end = p
		}
	}

	if start >= end {
		return nil, &AccessError{Addr: start, Limit: end}
	}

	return NewRegion(d.storage, id, start, end-start), nil
}

// A DataSpecWriter lays out a data specification table and its regions in a
// storage. It plays the part of the host tooling that prepares the SDRAM.
type DataSpecWriter struct {
	storage *Storage
	base    uint64
	regions map[RegionID][]uint32
}

// NewDataSpecWriter creates a writer that puts the table at base.
func NewDataSpecWriter(storage *Storage, base uint64) *DataSpecWriter {
	return &DataSpecWriter{
		storage: storage,
		base:    base,
		regions: make(map[RegionID][]uint32),
	}
}

// SetRegion sets the initial content of a region.
func (w *DataSpecWriter) SetRegion(id RegionID, words []uint32) {
	if uint32(id) >= MaxRegions {
		panic(fmt.Sprintf("region %d out of range", id))
	}

	w.regions[id] = words
}

// ReserveRegion allocates a zeroed region of the given number of words.
func (w *DataSpecWriter) ReserveRegion(id RegionID, numWords int) {
	w.SetRegion(id, make([]uint32, numWords))
}

// Write stores the table followed by the regions in increasing id order. It
// returns the first address after the image.
func (w *DataSpecWriter) Write() (uint64, error) {
	ids := make([]RegionID, 0, len(w.regions))
	for id := range w.regions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	header := make([]uint32, dataSpecHeaderWords)
	header[0] = DataSpecMagic
	header[1] = DataSpecVersion

	addr := w.base + dataSpecHeaderWords*WordSize
	for _, id := range ids {
		words := w.regions[id]
		if len(words) == 0 {
			continue
		}

		if addr > 0xFFFFFFFF {
			return 0, &AccessError{Addr: addr, Limit: 0xFFFFFFFF}
		}

		header[2+id] = uint32(addr)
		if err := w.storage.WriteWords(addr, words); err != nil {
			return 0, fmt.Errorf("writing %s: %w", id, err)
		}

		addr += uint64(len(words)) * WordSize
	}

	if err := w.storage.WriteWords(w.base, header); err != nil {
		return 0, fmt.Errorf("writing data specification header: %w", err)
	}

	return addr, nil
}
