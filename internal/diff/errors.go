package diff

import (
	"fmt"
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedFormat = imagex.ErrUnsupportedFormat
	ErrDimensionMismatch = errors.New("image dimensions differ")
	ErrFormatMismatch    = errors.New("color formats differ")
	ErrLengthMismatch    = errors.New("scanline length mismatch")
	ErrInvalidFormat     = errors.New("bytes per pixel must be positive")
)

type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ReadError is returned when a scanline can not be read, including a stream
// that ends before its declared height.
type ReadError struct {
	Side Side
	Row  int
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s image row %d: %v", e.Side, e.Row, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError wraps a failure of the output Emitter.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write diff image: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
