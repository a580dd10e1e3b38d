package vertex

import (
	"math"

	"github.com/sarchlab/tablevertex/table"
)

// ClockSentinel is the value of the clock before the first tick of a run.
// The first tick wraps it to zero.
const ClockSentinel = math.MaxUint32

// Context holds the state shared by the handlers of a vertex.
type Context struct {
	Header table.Header
	Time   uint32

	headerLoaded bool
}

// NewContext returns a context whose clock is before the first tick.
func NewContext() *Context {
	return &Context{Time: ClockSentinel}
}

// LoadHeader decodes the table header the first time it is called and
// returns the stored header afterwards.
func (c *Context) LoadHeader(r table.WordReader) (table.Header, error) {
	if c.headerLoaded {
		return c.Header, nil
	}

	h, err := table.DecodeHeader(r)
	if err != nil {
		return table.Header{}, err
	}

	c.Header = h
	c.headerLoaded = true

	return h, nil
}

// HeaderLoaded tells if the header has been decoded.
func (c *Context) HeaderLoaded() bool {
	return c.headerLoaded
}

// ResetClock puts the clock back before the first tick.
func (c *Context) ResetClock() {
	c.Time = ClockSentinel
}
