// Package recording implements buffered recording channels. A core writes
// records into fixed-size channel buffers during a run; the buffers are
// flushed to a Sink when they fill up and when the run ends.
package recording

import (
	"errors"
	"fmt"
	"io"
	"log"
)

// MaxChannels is the number of channels a recording region can describe.
const MaxChannels = 32

// MaxBufferBytes bounds the total size of the channel buffers of a recorder.
// It matches the SDRAM of a node.
const MaxBufferBytes = 16 << 20

var (
	// ErrTooManyChannels is returned when a recording region declares more
	// channels than a recorder supports.
	ErrTooManyChannels = errors.New("too many recording channels")

	// ErrBuffersTooLarge is returned when the channel buffers of a recording
	// region add up to more than MaxBufferBytes.
	ErrBuffersTooLarge = errors.New("recording buffers too large")
)

// WordReader provides word-granular read access to a region.
type WordReader interface {
	ReadWords(offset uint32, dst []uint32) error
}

// A Record is a block of data written to a channel.
type Record struct {
	Channel int
	Time    uint32
	Data    []byte
}

// A Sink receives the records flushed from the channels. The data of the
// records is only valid during the call.
type Sink interface {
	Flush(records []Record) error
}

type channel struct {
	buf     []byte
	used    int
	records []Record
}

func (c *channel) free() int {
	return len(c.buf) - c.used
}

// A Recorder owns the recording channels of a core.
type Recorder struct {
	sink     Sink
	logger   *log.Logger
	channels []*channel
	flags    uint32
	time     uint32

	finalised bool
}

// NewRecorder creates a recorder that flushes to the given sink. A nil logger
// discards the messages.
func NewRecorder(sink Sink, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Recorder{
		sink:   sink,
		logger: logger,
	}
}

// Initialize reads the recording region, which holds the number of channels
// followed by the buffer size of each channel in bytes. The returned flags
// have bit i set if channel i can be written.
func (r *Recorder) Initialize(region WordReader) (uint32, error) {
	var count [1]uint32
	if err := region.ReadWords(0, count[:]); err != nil {
		return 0, fmt.Errorf("reading channel count: %w", err)
	}

	n := count[0]
	if n > MaxChannels {
		return 0, fmt.Errorf("%w: %d", ErrTooManyChannels, n)
	}

	sizes := make([]uint32, n)
	if err := region.ReadWords(1, sizes); err != nil {
		return 0, fmt.Errorf("reading channel sizes: %w", err)
	}

	var total uint64
	for _, size := range sizes {
		total += uint64(size)
	}

	if total > MaxBufferBytes {
		return 0, fmt.Errorf("%w: %d bytes, at most %d",
			ErrBuffersTooLarge, total, MaxBufferBytes)
	}

	r.channels = make([]*channel, n)
	r.flags = 0
	r.time = 0
	r.finalised = false

	for i, size := range sizes {
		r.channels[i] = &channel{buf: make([]byte, size)}
		if size > 0 {
			r.flags |= 1 << uint(i)
		}
	}

	return r.flags, nil
}

// Flags returns the enabled channels as a bit set.
func (r *Recorder) Flags() uint32 {
	return r.flags
}

// Record copies data into the buffer of a channel. It returns false if the
// channel is not enabled, if the data does not fit, or if the recorder has
// been finalised.
func (r *Recorder) Record(ch int, data []byte) bool {
	if r.finalised || ch < 0 || ch >= len(r.channels) {
		return false
	}

	if r.flags&(1<<uint(ch)) == 0 {
		return false
	}

	c := r.channels[ch]
	if len(data) > c.free() {
		return false
	}

	start := c.used
	c.used += copy(c.buf[start:], data)
	c.records = append(c.records, Record{
		Channel: ch,
		Time:    r.time,
		Data:    c.buf[start:c.used:c.used],
	})

	return true
}

// Pending returns how many bytes are waiting in a channel.
func (r *Recorder) Pending(ch int) int {
	if ch < 0 || ch >= len(r.channels) {
		return 0
	}

	return r.channels[ch].used
}

// DoTimestepUpdate sets the time of the records written from now on and
// flushes the channels that are more than half full.
func (r *Recorder) DoTimestepUpdate(time uint32) {
	if r.finalised {
		return
	}

	r.time = time

	for i, c := range r.channels {
		if c.used > 0 && c.used*2 > len(c.buf) {
			r.flush(i)
		}
	}
}

// Finalise flushes all the channels. No record is accepted afterwards.
// Finalising twice, or finalising a recorder with no channel, does nothing.
func (r *Recorder) Finalise() {
	if r.finalised || r.flags == 0 {
		return
	}

	for i := range r.channels {
		r.flush(i)
	}

	r.finalised = true
	r.logger.Printf("recording: finalised at time %d", r.time)
}

// Reset makes a finalised recorder accept records again, for the next run
// of a resumed core.
func (r *Recorder) Reset() {
	for _, c := range r.channels {
		c.used = 0
		c.records = c.records[:0]
	}

	r.finalised = false
}

// Finalised tells if the recorder has been finalised.
func (r *Recorder) Finalised() bool {
	return r.finalised
}

func (r *Recorder) flush(ch int) {
	c := r.channels[ch]
	if len(c.records) == 0 {
		return
	}

	if r.sink != nil {
		if err := r.sink.Flush(c.records); err != nil {
			r.logger.Printf("recording: flushing channel %d: %v", ch, err)
		}
	}

	c.used = 0
	c.records = c.records[:0]
}
