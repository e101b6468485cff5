package pngx

import (
	"image/png"
)

const (
	ftNone = iota
	ftSub
	ftUp
	ftAverage
	ftPaeth
)

// unfilter reverses the per-row filter in place. prev is the previous
// unfiltered row, all zero for the first one. bpp is the filter distance in
// bytes, at least 1.
func unfilter(ft byte, cdat, prev []byte, bpp int) error {
	switch ft {
	case ftNone:
	case ftSub:
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += cdat[i-bpp]
		}
	case ftUp:
		for i, p := range prev {
			cdat[i] += p
		}
	case ftAverage:
		for i := 0; i < bpp && i < len(cdat); i++ {
			cdat[i] += prev[i] / 2
		}
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += uint8((int(cdat[i-bpp]) + int(prev[i])) / 2)
		}
	case ftPaeth:
		for i := 0; i < bpp && i < len(cdat); i++ {
			cdat[i] += prev[i]
		}
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += paeth(cdat[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return png.FormatError("bad filter type")
	}
	return nil
}

func paeth(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
