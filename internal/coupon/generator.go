package coupon

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source fills a buffer with random bytes. A Source is owned by exactly one
// worker and is never shared.
type Source interface {
	Fill(p []byte)
}

// randSource adapts a math/rand/v2 source to Source.
type randSource struct {
	src rand.Source
}

func (s *randSource) Fill(p []byte) {
	var word [8]byte
	for len(p) > 0 {
		binary.LittleEndian.PutUint64(word[:], s.src.Uint64())
		n := copy(p, word[:])
		p = p[n:]
	}
}

// NewSeededSource returns a reproducible source. Different stream values give
// independent sequences for the same seed, one per worker.
func NewSeededSource(seed, stream uint64) Source {
	return &randSource{src: rand.NewPCG(seed, stream)}
}

// NewEntropySource returns a source seeded from the operating system.
// It is fast, not cryptographically secure.
func NewEntropySource() Source {
	var seed [32]byte
	cryptorand.Read(seed[:])
	return &randSource{src: rand.NewChaCha8(seed)}
}

// Generator produces candidate codes: the prefix followed by suffixLen
// symbols, one random byte per symbol.
type Generator struct {
	prefixLen int
	src       Source
	buf       []byte
}

// NewGenerator creates a generator for codes of prefix plus suffixLen symbols.
func NewGenerator(src Source, prefix string, suffixLen int) *Generator {
	buf := make([]byte, len(prefix)+suffixLen)
	copy(buf, prefix)
	return &Generator{
		prefixLen: len(prefix),
		src:       src,
		buf:       buf,
	}
}

// Candidate returns a new candidate code. It touches no shared state.
func (g *Generator) Candidate() string {
	suffix := g.buf[g.prefixLen:]
	g.src.Fill(suffix)
	for i, b := range suffix {
		suffix[i] = Symbol(b)
	}
	return string(g.buf)
}
