package imagex

import (
	"github.com/pkg/errors"
	"image"
	"image/color"
)

// FormatOf picks the row format a decoded image is materialized in. The choice
// depends on the concrete type only so two files of the same kind always agree.
func FormatOf(img image.Image) ColorFormat {
	switch img.(type) {
	case *image.Gray:
		return Gray(8)
	case *image.Gray16:
		return Gray(16)
	case *image.NRGBA, *image.RGBA, *image.NYCbCrA:
		return RGBA(8)
	case *image.NRGBA64, *image.RGBA64:
		return RGBA(16)
	case *image.Paletted:
		return Indexed(8)
	}
	return RGB(8)
}

// FrameFromImage packs img into rows of the given format.
func FrameFromImage(img image.Image, cf ColorFormat) (*Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if p, ok := img.(*image.Paletted); ok && cf == Indexed(8) {
		f := NewFrame(w, h, cf)
		copyRows(f, p.Pix, p.Stride, p.PixOffset(b.Min.X, b.Min.Y))
		return f, nil
	}
	if _, err := cf.BytesPerPixel(); err != nil {
		return nil, err
	}

	f := NewFrame(w, h, cf)
	switch src := img.(type) {
	case *image.Gray:
		if cf == Gray(8) {
			copyRows(f, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
			return f, nil
		}
	case *image.Gray16:
		if cf == Gray(16) {
			copyRows(f, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
			return f, nil
		}
	case *image.NRGBA:
		if cf == RGBA(8) {
			copyRows(f, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
			return f, nil
		}
	case *image.NRGBA64:
		if cf == RGBA(16) {
			copyRows(f, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
			return f, nil
		}
	}

	var samples [4]uint16
	for y := 0; y < h; y++ {
		row := f.Row(y)
		pos := 0
		for x := 0; x < w; x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			n := sampleNRGBA64(c, cf.Model, samples[:])
			for _, s := range samples[:n] {
				if cf.Depth == 16 {
					row[pos] = uint8(s >> 8)
					row[pos+1] = uint8(s)
					pos += 2
				} else {
					row[pos] = uint8(s >> 8)
					pos++
				}
			}
		}
	}
	return f, nil
}

func copyRows(f *Frame, pix []byte, stride, offset int) {
	for y := 0; y < f.Height; y++ {
		start := offset + y*stride
		copy(f.Row(y), pix[start:start+f.Stride])
	}
}

func sampleNRGBA64(c color.NRGBA64, model ColorModel, dst []uint16) int {
	switch model {
	case ModelGray:
		dst[0] = luma(c)
		return 1
	case ModelGrayAlpha:
		dst[0], dst[1] = luma(c), c.A
		return 2
	case ModelRGB:
		dst[0], dst[1], dst[2] = c.R, c.G, c.B
		return 3
	case ModelRGBA:
		dst[0], dst[1], dst[2], dst[3] = c.R, c.G, c.B, c.A
		return 4
	}
	panic(errors.Errorf("imagex: no samples for %v", model))
}

// luma uses the color.Gray16Model weights on straight alpha values, so gray
// inputs keep their exact level even where they are transparent.
func luma(c color.NRGBA64) uint16 {
	y := (19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16
	return uint16(y)
}
