package imagex

import (
	"fmt"
	"github.com/pkg/errors"
)

var ErrUnsupportedFormat = errors.New("unsupported color format")

type ColorModel uint8

const (
	ModelGray ColorModel = iota + 1
	ModelGrayAlpha
	ModelRGB
	ModelRGBA
	ModelIndexed
)

var modelNames = map[ColorModel]string{
	ModelGray:      "Gray",
	ModelGrayAlpha: "GrayAlpha",
	ModelRGB:       "RGB",
	ModelRGBA:      "RGBA",
	ModelIndexed:   "Indexed",
}

func (m ColorModel) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ColorModel(%d)", uint8(m))
}

// Channels is the number of samples per pixel, 0 for unknown models.
func (m ColorModel) Channels() int {
	switch m {
	case ModelGray, ModelIndexed:
		return 1
	case ModelGrayAlpha:
		return 2
	case ModelRGB:
		return 3
	case ModelRGBA:
		return 4
	}
	return 0
}

// ColorFormat describes the channel layout and bit depth of a decoded row.
type ColorFormat struct {
	Model ColorModel
	Depth int
}

func Gray(depth int) ColorFormat      { return ColorFormat{ModelGray, depth} }
func GrayAlpha(depth int) ColorFormat { return ColorFormat{ModelGrayAlpha, depth} }
func RGB(depth int) ColorFormat       { return ColorFormat{ModelRGB, depth} }
func RGBA(depth int) ColorFormat      { return ColorFormat{ModelRGBA, depth} }
func Indexed(depth int) ColorFormat   { return ColorFormat{ModelIndexed, depth} }

func (cf ColorFormat) String() string {
	return fmt.Sprintf("%v(%d)", cf.Model, cf.Depth)
}

// BitsPerPixel does not validate the format, streams use it to size rows of
// formats the comparator later rejects.
func (cf ColorFormat) BitsPerPixel() int {
	return cf.Model.Channels() * cf.Depth
}

// RowLen is the byte length of a packed row of width pixels.
func (cf ColorFormat) RowLen(width int) int {
	return (cf.BitsPerPixel()*width + 7) / 8
}

// BytesPerPixel resolves the byte width of one pixel. Palette images and
// depths that do not fill whole bytes are rejected.
func (cf ColorFormat) BytesPerPixel() (int, error) {
	switch cf.Model {
	case ModelGray, ModelGrayAlpha, ModelRGB, ModelRGBA:
	default:
		return 0, errors.WithMessagef(ErrUnsupportedFormat, "color model %v", cf.Model)
	}
	if cf.Depth <= 0 || cf.Depth%8 != 0 {
		return 0, errors.WithMessagef(ErrUnsupportedFormat, "bit depth %d of %v", cf.Depth, cf.Model)
	}
	return cf.Model.Channels() * cf.Depth / 8, nil
}
