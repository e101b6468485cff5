package pngx

import (
	"bytes"
	"encoding/binary"
	"github.com/klauspost/compress/zlib"
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/pkg/errors"
	"image/png"
	"io"
	"strconv"
)

const pngMagic = "\x89PNG\r\n\x1a\n"

const (
	ctGray      = 0
	ctRGB       = 2
	ctIndexed   = 3
	ctGrayAlpha = 4
	ctRGBA      = 6
)

var validDepths = map[uint8][]uint8{
	ctGray:      {1, 2, 4, 8, 16},
	ctRGB:       {8, 16},
	ctIndexed:   {1, 2, 4, 8},
	ctGrayAlpha: {8, 16},
	ctRGBA:      {8, 16},
}

// Header is the content of the IHDR chunk.
type Header struct {
	Width, Height int
	Depth         uint8
	ColorType     uint8
	Interlaced    bool
}

func (h Header) ColorFormat() imagex.ColorFormat {
	d := int(h.Depth)
	switch h.ColorType {
	case ctGray:
		return imagex.Gray(d)
	case ctRGB:
		return imagex.RGB(d)
	case ctIndexed:
		return imagex.Indexed(d)
	case ctGrayAlpha:
		return imagex.GrayAlpha(d)
	}
	return imagex.RGBA(d)
}

// Reader streams the raw scanlines of a non-interlaced PNG straight out of
// the IDAT chunks, one row of memory per buffer.
type Reader struct {
	header    Header
	format    imagex.ColorFormat
	rowLen    int
	filterBpp int
	zr        io.ReadCloser
	cur, prev []byte
	row       int
}

// NewStream opens a row stream over r. Interlaced images can not be read row
// by row, they are decoded whole and served from an imagex.Frame instead.
func NewStream(r io.Reader) (imagex.Stream, error) {
	var consumed bytes.Buffer
	cr := newChunkReader(io.TeeReader(r, &consumed))

	magic := make([]byte, len(pngMagic))
	if _, err := io.ReadFull(cr.in, magic); err != nil {
		return nil, errors.Wrap(unexpected(err), "read signature")
	}
	if string(magic) != pngMagic {
		return nil, png.FormatError("not a PNG file")
	}

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	if header.Interlaced {
		img, err := png.Decode(io.MultiReader(&consumed, r))
		if err != nil {
			return nil, errors.Wrap(err, "decode interlaced image")
		}
		frame, err := imagex.FrameFromImage(img, header.ColorFormat())
		if err != nil {
			return nil, err
		}
		return frame, nil
	}

	cr.in = r
	pr, err := newReader(cr, header)
	if err != nil {
		return nil, err
	}
	return pr, nil
}

func readHeader(cr *chunkReader) (Header, error) {
	var h Header
	length, typ, err := cr.next()
	if err != nil {
		return h, errors.Wrap(err, "read IHDR")
	}
	if typ != "IHDR" || length != 13 {
		return h, png.FormatError("missing IHDR chunk")
	}
	var data [13]byte
	if _, err := io.ReadFull(cr.body(13), data[:]); err != nil {
		return h, errors.Wrap(unexpected(err), "read IHDR")
	}
	if err := cr.verifyChecksum(); err != nil {
		return h, err
	}

	w := binary.BigEndian.Uint32(data[0:4])
	ht := binary.BigEndian.Uint32(data[4:8])
	if w == 0 || ht == 0 || w > 0x7fffffff || ht > 0x7fffffff {
		return h, png.FormatError("invalid dimensions")
	}
	h.Width, h.Height = int(w), int(ht)
	h.Depth, h.ColorType = data[8], data[9]

	depths, ok := validDepths[h.ColorType]
	if !ok {
		return h, png.UnsupportedError("color type " + strconv.Itoa(int(h.ColorType)))
	}
	if bytes.IndexByte(depths, h.Depth) < 0 {
		return h, png.FormatError("bit depth not valid for color type")
	}
	if data[10] != 0 {
		return h, png.UnsupportedError("compression method")
	}
	if data[11] != 0 {
		return h, png.UnsupportedError("filter method")
	}
	switch data[12] {
	case 0:
	case 1:
		h.Interlaced = true
	default:
		return h, png.FormatError("invalid interlace method")
	}
	return h, nil
}

func newReader(cr *chunkReader, header Header) (*Reader, error) {
	format := header.ColorFormat()
	pr := &Reader{
		header:    header,
		format:    format,
		rowLen:    format.RowLen(header.Width),
		filterBpp: (format.BitsPerPixel() + 7) / 8,
	}

	zr, err := zlib.NewReader(&idatReader{cr: cr})
	if err != nil {
		return nil, errors.Wrap(unexpected(err), "open IDAT stream")
	}
	pr.zr = zr
	pr.cur = make([]byte, 1+pr.rowLen)
	pr.prev = make([]byte, 1+pr.rowLen)
	return pr, nil
}

func (pr *Reader) Header() Header {
	return pr.header
}

func (pr *Reader) Dimensions() (int, int) {
	return pr.header.Width, pr.header.Height
}

func (pr *Reader) ColorFormat() imagex.ColorFormat {
	return pr.format
}

func (pr *Reader) RowLen() int {
	return pr.rowLen
}

func (pr *Reader) ReadScanline(buf []byte) error {
	if pr.row >= pr.header.Height {
		return io.EOF
	}
	if len(buf) != pr.rowLen {
		return errors.Errorf("scanline buffer is %d bytes, row is %d", len(buf), pr.rowLen)
	}

	if _, err := io.ReadFull(pr.zr, pr.cur); err != nil {
		return errors.Wrapf(unexpected(err), "inflate row %d", pr.row)
	}
	if err := unfilter(pr.cur[0], pr.cur[1:], pr.prev[1:], pr.filterBpp); err != nil {
		return errors.WithMessagef(err, "row %d", pr.row)
	}

	copy(buf, pr.cur[1:])
	pr.cur, pr.prev = pr.prev, pr.cur
	pr.row++
	return nil
}

func (pr *Reader) Close() error {
	return pr.zr.Close()
}

func init() {
	imagex.RegisterFormat("png", pngMagic, NewStream)
}
