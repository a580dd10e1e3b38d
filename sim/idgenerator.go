package sim

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

var (
	idGeneratorOnce sync.Mutex
	idGenerator     IDGenerator
)

// UseSequentialIDGenerator makes the event IDs deterministic. It must be
// called before the first ID is generated.
func UseSequentialIDGenerator() {
	setIDGenerator(&sequentialIDGenerator{})
}

// UseParallelIDGenerator makes the event IDs globally unique with xid. The
// IDs are no longer deterministic. It must be called before the first ID is
// generated.
func UseParallelIDGenerator() {
	setIDGenerator(xidGenerator{})
}

func setIDGenerator(g IDGenerator) {
	idGeneratorOnce.Lock()
	defer idGeneratorOnce.Unlock()

	if idGenerator != nil {
		log.Panic("cannot change id generator type after using it")
	}

	idGenerator = g
}

// GetIDGenerator returns the ID generator used in the current simulation.
// The sequential generator is used if none is selected.
func GetIDGenerator() IDGenerator {
	idGeneratorOnce.Lock()
	defer idGeneratorOnce.Unlock()

	if idGenerator == nil {
		idGenerator = &sequentialIDGenerator{}
	}

	return idGenerator
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.nextID, 1), 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
