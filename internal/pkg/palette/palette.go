// Package palette builds qualitative color palettes for cluster maps.
package palette

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueOffset  = 0.01
	lightness  = 0.6
	saturation = 0.65
)

var (
	// ErrEmpty is returned when a palette of zero colors is requested.
	ErrEmpty = errors.New("palette: color count must be positive")
	// ErrOutOfRange is returned by Lookup for labels without a slot.
	ErrOutOfRange = errors.New("palette: label out of range")
)

// Palette is an ordered list of hex colors ("#rrggbb").
type Palette []string

// HLS returns n colors evenly spaced around the hue circle at fixed
// lightness and saturation.
func HLS(n int) (Palette, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrEmpty, n)
	}

	p := make(Palette, n)
	for i := 0; i < n; i++ {
		h := float64(i)/float64(n) + hueOffset
		h -= float64(int(h))
		p[i] = colorful.Hsl(h*360, saturation, lightness).Hex()
	}
	return p, nil
}

// Shuffled returns HLS(n) permuted by a generator seeded with seed.
// The same seed always yields the same order.
func Shuffled(n int, seed uint64) (Palette, error) {
	p, err := HLS(n)
	if err != nil {
		return nil, err
	}

	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p, nil
}

// Lookup returns the color for label. Negative labels count from the end,
// so the noise label -1 maps to the last color.
func (p Palette) Lookup(label int) (string, error) {
	idx := label
	if idx < 0 {
		idx += len(p)
	}
	if idx < 0 || idx >= len(p) {
		return "", fmt.Errorf("%w: label %d with %d colors", ErrOutOfRange, label, len(p))
	}
	return p[idx], nil
}
