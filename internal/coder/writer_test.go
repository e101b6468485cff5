package coder_test

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mocukie/imgdiff/internal/coder"
	"github.com/mocukie/imgdiff/internal/iox"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func grayMap() *image.Gray {
	m := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(m.Pix, []byte{255, 20, 255, 255, 255, 0})
	return m
}

func TestDiffWriterRoundTrip(t *testing.T) {
	decoders := map[string]func(io.Reader) (image.Image, error){
		"png":  png.Decode,
		"bmp":  bmp.Decode,
		"tiff": tiff.Decode,
	}

	for ext, decode := range decoders {
		ext, decode := ext, decode
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "diff."+ext)
			enc, err := coder.ForPath(path)
			if err != nil {
				t.Fatal(err)
			}

			dw := &coder.DiffWriter{Out: iox.NewFileOutput(path), Encoder: enc}
			if err := dw.Emit(grayMap()); err != nil {
				t.Fatalf("emit: %v", err)
			}

			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := decode(f)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			got := image.NewGray(img.Bounds())
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					got.Set(x, y, img.At(x, y))
				}
			}
			if d := cmp.Diff(grayMap().Pix, got.Pix); d != "" {
				t.Errorf("(-want +got):\n%s", d)
			}
		})
	}
}

type failingEncoder struct{}

func (failingEncoder) Encode(w io.Writer, m image.Image) error {
	_, _ = w.Write([]byte("partial"))
	return errors.New("boom")
}

func TestDiffWriterDiscardsOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.png")
	dw := &coder.DiffWriter{Out: iox.NewFileOutput(path), Encoder: failingEncoder{}}

	if err := dw.Emit(grayMap()); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected partial output to be removed, stat returned %v", err)
	}
}

func TestForPath(t *testing.T) {
	for _, tt := range []struct {
		path string
		want interface{}
		err  bool
	}{
		{"out.png", &coder.PNG{}, false},
		{"OUT.PNG", &coder.PNG{}, false},
		{"out.bmp", &coder.BMP{}, false},
		{"out.tif", &coder.TIFF{}, false},
		{"out.tiff", &coder.TIFF{}, false},
		{"out.jpg", nil, true},
		{"out", nil, true},
	} {
		enc, err := coder.ForPath(tt.path)
		if tt.err {
			if err == nil {
				t.Errorf("%s: expected an error, got %T", tt.path, enc)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.path, err)
			continue
		}
		if gotT, wantT := fmt.Sprintf("%T", enc), fmt.Sprintf("%T", tt.want); gotT != wantT {
			t.Errorf("%s: expected %s, got %s", tt.path, wantT, gotT)
		}
	}
}
