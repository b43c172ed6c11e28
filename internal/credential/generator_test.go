package credential

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShape(t *testing.T) {
	prefixes := []string{"H", "DIA", "vip-", "ñ"}
	digits := regexp.MustCompile(`^[0-9]{6}$`)

	for _, prefix := range prefixes {
		t.Run(prefix, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				name := Generate(prefix)
				if !strings.HasPrefix(name, prefix) {
					t.Fatalf("Generate(%q) = %q, missing prefix", prefix, name)
				}
				suffix := strings.TrimPrefix(name, prefix)
				if !digits.MatchString(suffix) {
					t.Fatalf("Generate(%q) = %q, suffix %q is not 6 digits", prefix, name, suffix)
				}
			}
		})
	}
}

func TestSeededGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(42)
	b := NewGenerator(42)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate("H"), b.Generate("H"))
	}
}

func TestGenerateKeepsLeadingZeros(t *testing.T) {
	g := NewGenerator(7)
	sawLeadingZero := false
	for i := 0; i < 5000 && !sawLeadingZero; i++ {
		name := g.Generate("")
		assert.Len(t, name, SuffixDigits)
		sawLeadingZero = name[0] == '0'
	}
	assert.True(t, sawLeadingZero, "expected at least one suffix with a leading zero in 5000 draws")
}

// fixedSource makes Intn(1000000) return the listed values in order.
type fixedSource struct {
	vals []int64
	i    int
}

func (s *fixedSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v << 32
}

func (s *fixedSource) Seed(int64) {}

func TestGeneratorFromSource(t *testing.T) {
	g := NewGeneratorFromSource(&fixedSource{vals: []int64{0, 42, 999999}})

	assert.Equal(t, "H000000", g.Generate("H"))
	assert.Equal(t, "H000042", g.Generate("H"))
	assert.Equal(t, "H999999", g.Generate("H"))
}
