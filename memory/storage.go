package memory

import (
	"encoding/binary"
	"fmt"
)

// Units of storage capacity.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
)

// WordSize is the number of bytes in a word. Words are stored little-endian,
// the native order of the node.
const WordSize = 4

// AccessError reports a read or write outside of an addressable range.
type AccessError struct {
	Addr  uint64
	Len   uint64
	Limit uint64
}

func (e *AccessError) Error() string {
	return fmt.Sprintf(
		"accessing [0x%x, 0x%x) beyond the limit 0x%x",
		e.Addr, e.Addr+e.Len, e.Limit)
}

// A Storage keeps the content of the shared SDRAM of a node.
//
// The storage is managed in units, similar to pages. Units that have never
// been touched by Read or Write are not allocated and read as zeros.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		unitSize: 4 * KB,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes that the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) checkRange(addr, length uint64) error {
	if addr > s.capacity || length > s.capacity-addr {
		return &AccessError{Addr: addr, Len: length, Limit: s.capacity}
	}

	return nil
}

func (s *Storage) unit(baseAddr uint64, create bool) []byte {
	u, ok := s.data[baseAddr]
	if !ok && create {
		u = make([]byte, s.unitSize)
		s.data[baseAddr] = u
	}

	return u
}

// Read copies len(dst) bytes starting at addr into dst.
func (s *Storage) Read(addr uint64, dst []byte) error {
	length := uint64(len(dst))
	if err := s.checkRange(addr, length); err != nil {
		return err
	}

	done := uint64(0)
	for done < length {
		curr := addr + done
		inUnit := curr % s.unitSize
		n := min(s.unitSize-inUnit, length-done)

		u := s.unit(curr-inUnit, false)
		if u == nil {
			clear(dst[done : done+n])
		} else {
			copy(dst[done:done+n], u[inUnit:inUnit+n])
		}

		done += n
	}

	return nil
}

// Write copies data into the storage starting at addr.
func (s *Storage) Write(addr uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.checkRange(addr, length); err != nil {
		return err
	}

	done := uint64(0)
	for done < length {
		curr := addr + done
		inUnit := curr % s.unitSize
		n := min(s.unitSize-inUnit, length-done)

		u := s.unit(curr-inUnit, true)
		copy(u[inUnit:inUnit+n], data[done:done+n])

		done += n
	}

	return nil
}

// ReadWord reads one little-endian word at addr.
func (s *Storage) ReadWord(addr uint64) (uint32, error) {
	var buf [WordSize]byte
	if err := s.Read(addr, buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteWords writes the words little-endian starting at addr.
func (s *Storage) WriteWords(addr uint64, words []uint32) error {
	buf := make([]byte, len(words)*WordSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], w)
	}

	return s.Write(addr, buf)
}
