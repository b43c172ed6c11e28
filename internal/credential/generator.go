// Package credential generates hotspot usernames.
package credential

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// SuffixDigits is the number of decimal digits appended to the prefix.
const SuffixDigits = 6

const suffixSpace = 1000000

// Generator produces prefix + 6 random decimal digits (leading zeros kept).
// It does not remember what it produced; callers that need distinct names
// must track them.
type Generator struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewGenerator returns a generator seeded with seed, or from crypto/rand when seed is 0.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		var b [8]byte
		_, _ = crand.Read(b[:])
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewGeneratorFromSource(rand.NewSource(seed))
}

// NewGeneratorFromSource draws suffixes from src.
func NewGeneratorFromSource(src rand.Source) *Generator {
	return &Generator{src: rand.New(src)}
}

// Generate returns prefix followed by exactly SuffixDigits digits.
func (g *Generator) Generate(prefix string) string {
	g.mu.Lock()
	n := g.src.Intn(suffixSpace)
	g.mu.Unlock()
	return fmt.Sprintf("%s%06d", prefix, n)
}

var defaultGenerator = NewGenerator(0)

// Generate uses the package default generator.
func Generate(prefix string) string {
	return defaultGenerator.Generate(prefix)
}
