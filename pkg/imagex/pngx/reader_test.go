package pngx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mocukie/imgdiff/pkg/imagex"
)

func readAll(t *testing.T, s imagex.Stream) [][]byte {
	t.Helper()
	_, h := s.Dimensions()
	rows := make([][]byte, h)
	for y := range rows {
		rows[y] = make([]byte, s.RowLen())
		if err := s.ReadScanline(rows[y]); err != nil {
			t.Fatalf("row %d: %v", y, err)
		}
	}
	if err := s.ReadScanline(make([]byte, s.RowLen())); err != io.EOF {
		t.Errorf("read past last row: got %v, want io.EOF", err)
	}
	return rows
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func randomBytes(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestNewStream(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	const w, h = 13, 7

	gray := image.NewGray(image.Rect(0, 0, w, h))
	copy(gray.Pix, randomBytes(r, len(gray.Pix)))

	gray16 := image.NewGray16(image.Rect(0, 0, w, h))
	copy(gray16.Pix, randomBytes(r, len(gray16.Pix)))

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(nrgba.Pix, randomBytes(r, len(nrgba.Pix)))
	nrgba.Pix[3] = 0x7f

	opaque := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(opaque.Pix, randomBytes(r, len(opaque.Pix)))
	var rgb []byte
	for i := 0; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i+3] = 0xff
		rgb = append(rgb, opaque.Pix[i:i+3]...)
	}

	nrgba64 := image.NewNRGBA64(image.Rect(0, 0, w, h))
	copy(nrgba64.Pix, randomBytes(r, len(nrgba64.Pix)))
	nrgba64.Pix[6], nrgba64.Pix[7] = 0x12, 0x34

	tests := []struct {
		name   string
		img    image.Image
		format imagex.ColorFormat
		pix    []byte
	}{
		{"Gray8", gray, imagex.Gray(8), gray.Pix},
		{"Gray16", gray16, imagex.Gray(16), gray16.Pix},
		{"RGBA8", nrgba, imagex.RGBA(8), nrgba.Pix},
		{"RGB8", opaque, imagex.RGB(8), rgb},
		{"RGBA16", nrgba64, imagex.RGBA(16), nrgba64.Pix},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStream(bytes.NewReader(encode(t, tt.img)))
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			if _, ok := s.(*Reader); !ok {
				t.Fatalf("got %T, want *Reader", s)
			}
			if got := s.ColorFormat(); got != tt.format {
				t.Errorf("format: got %v, want %v", got, tt.format)
			}
			if gw, gh := s.Dimensions(); gw != w || gh != h {
				t.Errorf("dimensions: got %dx%d, want %dx%d", gw, gh, w, h)
			}
			got := bytes.Join(readAll(t, s), nil)
			if d := cmp.Diff(tt.pix, got); d != "" {
				t.Errorf("pixels (-want +got):\n%s", d)
			}
		})
	}
}

// filterRow applies PNG filter ft to cur given the previous raw row.
func filterRow(ft byte, cur, prev []byte, bpp int) []byte {
	out := make([]byte, len(cur))
	for i := range cur {
		var a, b, c byte
		if i >= bpp {
			a, c = cur[i-bpp], prev[i-bpp]
		}
		b = prev[i]
		switch ft {
		case ftNone:
			out[i] = cur[i]
		case ftSub:
			out[i] = cur[i] - a
		case ftUp:
			out[i] = cur[i] - b
		case ftAverage:
			out[i] = cur[i] - byte((int(a)+int(b))/2)
		case ftPaeth:
			out[i] = cur[i] - paeth(a, b, c)
		}
	}
	return out
}

func chunk(w io.Writer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	w.Write(hdr[:])
	w.Write(data)
	binary.Write(w, binary.BigEndian, crc.Sum32())
}

// buildPNG writes rows with the given per-row filters, splitting the zlib
// stream over several IDAT chunks and placing an ancillary chunk before them.
func buildPNG(width, height int, depth, colorType byte, rows [][]byte, filters []byte, bpp int) []byte {
	var raw bytes.Buffer
	prev := make([]byte, len(rows[0]))
	for y, row := range rows {
		raw.WriteByte(filters[y%len(filters)])
		raw.Write(filterRow(filters[y%len(filters)], row, prev, bpp))
		prev = row
	}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(raw.Bytes())
	zw.Close()

	var buf bytes.Buffer
	buf.WriteString(pngMagic)
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8], ihdr[9] = depth, colorType
	chunk(&buf, "IHDR", ihdr)
	chunk(&buf, "tEXt", []byte("Comment\x00generated"))
	data := z.Bytes()
	for len(data) > 0 {
		n := 7
		if n > len(data) {
			n = len(data)
		}
		chunk(&buf, "IDAT", data[:n])
		data = data[n:]
	}
	chunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func TestUnfilter(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	const w, h = 9, 6
	tests := []struct {
		name      string
		depth, ct byte
		format    imagex.ColorFormat
		bpp       int
	}{
		{"GrayAlpha8", 8, ctGrayAlpha, imagex.GrayAlpha(8), 2},
		{"GrayAlpha16", 16, ctGrayAlpha, imagex.GrayAlpha(16), 4},
		{"RGB16", 16, ctRGB, imagex.RGB(16), 6},
		{"RGBA8", 8, ctRGBA, imagex.RGBA(8), 4},
	}
	filters := []byte{ftNone, ftSub, ftUp, ftAverage, ftPaeth}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]byte, h)
			for y := range rows {
				rows[y] = randomBytes(r, tt.format.RowLen(w))
			}
			s, err := NewStream(bytes.NewReader(buildPNG(w, h, tt.depth, tt.ct, rows, filters, tt.bpp)))
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			if got := s.ColorFormat(); got != tt.format {
				t.Errorf("format: got %v, want %v", got, tt.format)
			}
			if d := cmp.Diff(rows, readAll(t, s)); d != "" {
				t.Errorf("rows (-want +got):\n%s", d)
			}
		})
	}
}

func TestNewStreamInterlaced(t *testing.T) {
	rows := [][]byte{{1, 2, 3}, {4, 5, 6}}
	// Adam7 passes of a 3x2 image: 1 is (0,0), 4 is (2,0), 6 is (1,0), 7 is row 1
	var raw bytes.Buffer
	raw.Write([]byte{ftNone, 1})
	raw.Write([]byte{ftNone, 3})
	raw.Write([]byte{ftNone, 2})
	raw.Write([]byte{ftSub, 4, 1, 1})

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(raw.Bytes())
	zw.Close()
	var buf bytes.Buffer
	buf.WriteString(pngMagic)
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 3)
	binary.BigEndian.PutUint32(ihdr[4:8], 2)
	ihdr[8], ihdr[9], ihdr[12] = 8, ctGray, 1
	chunk(&buf, "IHDR", ihdr)
	chunk(&buf, "IDAT", z.Bytes())
	chunk(&buf, "IEND", nil)

	s, err := NewStream(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*imagex.Frame); !ok {
		t.Fatalf("got %T, want *imagex.Frame", s)
	}
	if d := cmp.Diff(rows, readAll(t, s)); d != "" {
		t.Errorf("rows (-want +got):\n%s", d)
	}
}

func TestNewStreamErrors(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	valid := encode(t, img)

	t.Run("NotPNG", func(t *testing.T) {
		if _, err := NewStream(bytes.NewReader([]byte("GIF89a-not-a-png"))); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("TruncatedHeader", func(t *testing.T) {
		if _, err := NewStream(bytes.NewReader(valid[:20])); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("BadHeaderChecksum", func(t *testing.T) {
		data := append([]byte(nil), valid...)
		data[len(pngMagic)+8] ^= 0xff // width
		if _, err := NewStream(bytes.NewReader(data)); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("TruncatedData", func(t *testing.T) {
		s, err := NewStream(bytes.NewReader(valid[:len(valid)/2]))
		if err != nil {
			return
		}
		defer s.Close()
		buf := make([]byte, s.RowLen())
		for y := 0; y < 16; y++ {
			if err = s.ReadScanline(buf); err != nil {
				break
			}
		}
		if err == nil {
			t.Error("expected a read error on truncated data")
		}
	})
	t.Run("Palette", func(t *testing.T) {
		p := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
		s, err := NewStream(bytes.NewReader(encode(t, p)))
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		if _, err := s.ColorFormat().BytesPerPixel(); !errors.Is(err, imagex.ErrUnsupportedFormat) {
			t.Errorf("got %v, want ErrUnsupportedFormat", err)
		}
	})
}
