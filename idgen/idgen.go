// Package idgen generates the identifiers given to capture contexts.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate unique IDs.
type IDGenerator interface {
	Generate() string
}

// NewSequentialGenerator returns an ID generator that produces "1", "2", ...
// IDs are only unique within the generator.
func NewSequentialGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewXIDGenerator returns an ID generator that produces globally unique IDs.
func NewXIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	nextID atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := g.nextID.Add(1)

	return strconv.FormatUint(idNumber, 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
