package imagex

import (
	"github.com/pkg/errors"
	"io"
)

// Stream is a sequential row source. Rows are delivered strictly in order
// 0..height-1 and can not be rewound.
type Stream interface {
	Dimensions() (width, height int)
	ColorFormat() ColorFormat
	// RowLen is the byte length of one scanline.
	RowLen() int
	// ReadScanline fills buf, which must be exactly RowLen bytes long, with the
	// next row. It returns io.EOF once every row has been read.
	ReadScanline(buf []byte) error
	Close() error
}

// Frame holds a fully decoded image as contiguous packed rows. It serves rows
// in random order through Row and sequentially through the Stream methods.
type Frame struct {
	Width  int
	Height int
	Format ColorFormat
	Stride int
	Pix    []byte

	next int
}

func NewFrame(width, height int, format ColorFormat) *Frame {
	stride := format.RowLen(width)
	return &Frame{
		Width:  width,
		Height: height,
		Format: format,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}
}

func (f *Frame) Row(y int) []byte {
	return f.Pix[y*f.Stride : (y+1)*f.Stride : (y+1)*f.Stride]
}

func (f *Frame) Dimensions() (int, int) {
	return f.Width, f.Height
}

func (f *Frame) ColorFormat() ColorFormat {
	return f.Format
}

func (f *Frame) RowLen() int {
	return f.Stride
}

func (f *Frame) ReadScanline(buf []byte) error {
	if f.next >= f.Height {
		return io.EOF
	}
	if len(buf) != f.Stride {
		return errors.Errorf("scanline buffer is %d bytes, row is %d", len(buf), f.Stride)
	}
	copy(buf, f.Row(f.next))
	f.next++
	return nil
}

func (f *Frame) Close() error {
	return nil
}

// ReadFrame reads every row of a fresh stream into a Frame. An unread Frame is
// returned as is.
func ReadFrame(s Stream) (*Frame, error) {
	if f, ok := s.(*Frame); ok && f.next == 0 {
		f.next = f.Height
		return f, nil
	}
	w, h := s.Dimensions()
	f := NewFrame(w, h, s.ColorFormat())
	if s.RowLen() != f.Stride {
		return nil, errors.Errorf("stream row length %d, %v row of width %d is %d", s.RowLen(), f.Format, w, f.Stride)
	}
	for y := 0; y < h; y++ {
		if err := s.ReadScanline(f.Row(y)); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, &RowError{Row: y, Err: err}
		}
	}
	f.next = h
	return f, nil
}

// RowError reports the row a stream failed on.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return errors.WithMessagef(e.Err, "row %d", e.Row).Error()
}

func (e *RowError) Unwrap() error {
	return e.Err
}
