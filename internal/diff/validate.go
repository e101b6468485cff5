package diff

import (
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/pkg/errors"
)

type Geometry struct {
	Width, Height int
	Format        imagex.ColorFormat
}

func GeometryOf(s imagex.Stream) Geometry {
	w, h := s.Dimensions()
	return Geometry{Width: w, Height: h, Format: s.ColorFormat()}
}

// Validate gates a comparison. Pixel positions only line up when both images
// share width, height and color format, so it runs before any row is read.
func Validate(left, right Geometry) error {
	if left.Width != right.Width {
		return errors.WithMessagef(ErrDimensionMismatch, "width %d vs %d", left.Width, right.Width)
	}
	if left.Height != right.Height {
		return errors.WithMessagef(ErrDimensionMismatch, "height %d vs %d", left.Height, right.Height)
	}
	if left.Format != right.Format {
		return errors.WithMessagef(ErrFormatMismatch, "%v vs %v", left.Format, right.Format)
	}
	return nil
}
