package coder

import (
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"
)

type Encoder interface {
	Encode(w io.Writer, m image.Image) error
}

type PNG struct {
	Level png.CompressionLevel
}

func (e *PNG) Encode(w io.Writer, m image.Image) error {
	enc := png.Encoder{CompressionLevel: e.Level}
	return errors.Wrap(enc.Encode(w, m), "[PNG] encode failed")
}

type BMP struct{}

func (*BMP) Encode(w io.Writer, m image.Image) error {
	return errors.Wrap(bmp.Encode(w, m), "[BMP] encode failed")
}

type TIFF struct {
	Compression tiff.CompressionType
}

func (e *TIFF) Encode(w io.Writer, m image.Image) error {
	return errors.Wrap(tiff.Encode(w, m, &tiff.Options{Compression: e.Compression}), "[TIFF] encode failed")
}

// ByName returns the encoder for a format name or file extension without the
// leading dot.
func ByName(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "png":
		return &PNG{Level: png.BestCompression}, nil
	case "bmp":
		return &BMP{}, nil
	case "tif", "tiff":
		return &TIFF{Compression: tiff.Deflate}, nil
	case "webp":
		wp, err := NewLosslessWebP()
		if err != nil {
			return nil, err
		}
		return wp, nil
	}
	return nil, errors.Errorf("no encoder for format <%s>", name)
}

func ForPath(path string) (Encoder, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, errors.Errorf("output <%s> has no extension to pick a format from", path)
	}
	return ByName(ext[1:])
}
