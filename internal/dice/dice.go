// Package dice provides the injectable random source used by every game roll.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Source is the random source consumed by game rules. *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a value in [0,1)
	Float64() float64
	// Intn returns a value in [0,n)
	Intn(n int) int
}

// Roller handles dice rolling for the game. It is safe for concurrent use.
type Roller struct {
	mu  sync.Mutex
	src Source
}

// NewRoller creates a roller seeded from crypto/rand, falling back to the clock
func NewRoller() *Roller {
	return NewSeededRoller(newSeed())
}

// NewSeededRoller creates a reproducible roller
func NewSeededRoller(seed int64) *Roller {
	return &Roller{src: rand.New(rand.NewSource(seed))}
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Float64 returns a value in [0,1)
func (r *Roller) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// Intn returns a value in [0,n); n must be positive
func (r *Roller) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// Chance reports whether a draw from src falls below p
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Exceeds reports whether a draw from src is strictly above threshold
func Exceeds(src Source, threshold float64) bool {
	return src.Float64() > threshold
}
