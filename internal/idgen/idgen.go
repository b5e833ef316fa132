// Package idgen produces the compact replacement identifiers handed out
// during encoding: a fixed prefix followed by a base-36 counter.
package idgen

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Alphabet is the digit set of the counter suffix, in ascending order.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(len(Alphabet))

// maxWidth is the widest padded suffix whose space still fits in a uint64.
const maxWidth = 12

// ErrExhausted is returned by Next once the counter has no further value
// representable in the configured width.
var ErrExhausted = errors.New("idgen: identifier space exhausted")

// Generator is a strictly increasing id source scoped to one run.
// It is not safe for concurrent use.
type Generator struct {
	prefix string
	width  int
	start  uint64
	next   uint64
	limit  uint64 // exclusive; 0 means the full uint64 range
	done   bool
}

// Option customises New.
type Option func(*Generator)

// WithWidth zero-pads the suffix to n characters. 0 leaves it unpadded.
func WithWidth(n int) Option { return func(g *Generator) { g.width = n } }

// WithStart sets the first counter value.
func WithStart(n uint64) Option { return func(g *Generator) { g.start = n } }

// New returns a Generator for prefix.
func New(prefix string, opts ...Option) (*Generator, error) {
	g := &Generator{prefix: prefix}
	for _, o := range opts {
		o(g)
	}
	if g.width < 0 {
		return nil, fmt.Errorf("idgen: width must be >= 0, got %d", g.width)
	}
	if g.width > 0 && g.width <= maxWidth {
		g.limit = pow(base, g.width)
	}
	if g.limit > 0 && g.start >= g.limit {
		return nil, fmt.Errorf("idgen: start %d does not fit in %d characters: %w", g.start, g.width, ErrExhausted)
	}
	g.next = g.start
	return g, nil
}

// Next returns the next identifier.
func (g *Generator) Next() (string, error) {
	if g.done {
		return "", ErrExhausted
	}
	n := g.next
	switch {
	case g.limit > 0 && n+1 == g.limit:
		g.done = true
	case n == math.MaxUint64:
		g.done = true
	default:
		g.next++
	}
	return g.prefix + Format(n, g.width), nil
}

// Reset rewinds the counter to start.
func (g *Generator) Reset(start uint64) error {
	if g.limit > 0 && start >= g.limit {
		return fmt.Errorf("idgen: start %d does not fit in %d characters: %w", start, g.width, ErrExhausted)
	}
	g.start, g.next, g.done = start, start, false
	return nil
}

// Format renders n in base 36, left-padded with '0' to width.
func Format(n uint64, width int) string {
	var buf [16]byte
	i := len(buf)
	for {
		i--
		buf[i] = Alphabet[n%base]
		n /= base
		if n == 0 {
			break
		}
	}
	s := string(buf[i:])
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

// Compare orders two identifiers sharing a prefix the way a Generator emits
// them: shorter suffixes first, then lexicographically. For padded ids this
// is plain string order.
func Compare(a, b string) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return strings.Compare(a, b)
}

func pow(b uint64, e int) uint64 {
	r := uint64(1)
	for ; e > 0; e-- {
		r *= b
	}
	return r
}
