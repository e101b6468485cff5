package diff

import (
	"bytes"
	"github.com/pkg/errors"
)

// PixelDiff is one differing pixel of a row.
type PixelDiff struct {
	Col       int
	Intensity uint8
}

// Metric maps two unequal pixel groups to a difference intensity. It must be
// symmetric in its arguments.
type Metric func(left, right []byte) uint8

// AverageDelta is the mean absolute difference of the pixel bytes, truncated.
// For 8-bit formats that is the mean over channels.
func AverageDelta(left, right []byte) uint8 {
	var sum int
	for i, l := range left {
		d := int(l) - int(right[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return uint8(sum / len(left))
}

// CompareScanline splits both rows into bpp-byte pixel groups and appends a
// PixelDiff for every column whose groups differ, in column order, to dst[:0].
// A nil metric means AverageDelta.
func CompareScanline(left, right []byte, bpp int, metric Metric, dst []PixelDiff) ([]PixelDiff, error) {
	dst = dst[:0]
	if len(left) != len(right) {
		return dst, errors.WithMessagef(ErrLengthMismatch, "left row %d bytes, right row %d", len(left), len(right))
	}
	if bpp <= 0 {
		return dst, errors.WithMessagef(ErrInvalidFormat, "got %d", bpp)
	}
	if len(left)%bpp != 0 {
		return dst, errors.WithMessagef(ErrLengthMismatch, "row of %d bytes is not a whole number of %d byte pixels", len(left), bpp)
	}
	if metric == nil {
		metric = AverageDelta
	}

	for col, off := 0, 0; off < len(left); col, off = col+1, off+bpp {
		l, r := left[off:off+bpp], right[off:off+bpp]
		if !bytes.Equal(l, r) {
			dst = append(dst, PixelDiff{Col: col, Intensity: metric(l, r)})
		}
	}
	return dst, nil
}
