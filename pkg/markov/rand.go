package markov

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// RandomSource produces uniformly distributed integers for the weighted
// walks. Next must return an unbiased value in [0, maxValue); Next(0) returns
// 0. Implementations are not required to be safe for concurrent use.
type RandomSource interface {
	Next(maxValue int) int
}

// Rand is a fast pseudo-random RandomSource backed by a PCG generator.
type Rand struct {
	src *rand.Rand
}

// NewRand returns a Rand seeded from the process-wide generator. Callers that
// want reproducible walks should use NewSeededRand instead.
func NewRand() *Rand {
	return &Rand{src: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededRand returns a Rand that replays the same draw sequence for the
// same seed.
func NewSeededRand(seed uint64) *Rand {
	return &Rand{src: rand.New(rand.NewPCG(seed, seed))}
}

// Next returns a uniform value in [0, maxValue), or 0 when maxValue is not
// positive.
func (r *Rand) Next(maxValue int) int {
	if maxValue <= 0 {
		return 0
	}
	return r.src.IntN(maxValue)
}

// CryptoRand is a cryptographically strong RandomSource. It draws 64-bit
// words from crypto/rand and rejects draws at or above the largest multiple
// of maxValue that fits in a word, so the reduction below carries no modulo
// bias.
type CryptoRand struct{}

// NewCryptoRand returns a CryptoRand. The zero value is also usable.
func NewCryptoRand() *CryptoRand {
	return &CryptoRand{}
}

// Next returns a uniform value in [0, maxValue), or 0 when maxValue is not
// positive.
func (*CryptoRand) Next(maxValue int) int {
	if maxValue <= 0 {
		return 0
	}
	n := uint64(maxValue)
	limit := math.MaxUint64 - math.MaxUint64%n
	var buf [8]byte
	for {
		// crypto/rand.Read always fills the buffer and never errors.
		_, _ = cryptorand.Read(buf[:])
		v := binary.LittleEndian.Uint64(buf[:])
		if v < limit {
			return int(v % n)
		}
	}
}
