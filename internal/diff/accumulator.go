package diff

import (
	"image"
)

const unchanged = 0xff

// Accumulator owns the diff map and the running count of differing pixels.
// Pixels never reported stay white.
type Accumulator struct {
	width, height int
	origin        int
	pix           []byte
	count         int
}

func NewAccumulator(width, height int) *Accumulator {
	a := new(Accumulator)
	a.Reset(width, height)
	return a
}

// Reset reallocates the map for the given size, filled with 0xFF, and zeroes
// the count.
func (a *Accumulator) Reset(width, height int) {
	a.width, a.height, a.origin = width, height, 0
	a.pix = make([]byte, width*height)
	for i := range a.pix {
		a.pix[i] = unchanged
	}
	a.count = 0
}

// ApplyRow records the differing pixels of an image row.
func (a *Accumulator) ApplyRow(row int, diffs []PixelDiff) {
	base := (row - a.origin) * a.width
	for _, d := range diffs {
		a.pix[base+d.Col] = d.Intensity
	}
	a.count += len(diffs)
}

// Band returns an accumulator over image rows [start, end) sharing this map.
// Bands with disjoint ranges can be written concurrently; their counts are
// folded back with Merge.
func (a *Accumulator) Band(start, end int) *Accumulator {
	lo, hi := (start-a.origin)*a.width, (end-a.origin)*a.width
	return &Accumulator{
		width:  a.width,
		height: end - start,
		origin: start,
		pix:    a.pix[lo:hi:hi],
	}
}

func (a *Accumulator) Merge(bands ...*Accumulator) {
	for _, b := range bands {
		a.count += b.count
	}
}

func (a *Accumulator) Count() int {
	return a.count
}

// DiffMap exposes the buffer as a single channel image without copying.
func (a *Accumulator) DiffMap() *image.Gray {
	return &image.Gray{
		Pix:    a.pix,
		Stride: a.width,
		Rect:   image.Rect(0, 0, a.width, a.height),
	}
}
