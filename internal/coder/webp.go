package coder

import (
	"github.com/mocukie/webp-go/webp"
	"github.com/pkg/errors"
	"image"
	"image/draw"
	"io"
)

type WebP struct {
	Opts *webp.EncodeOptions
}

// NewLosslessWebP keeps every intensity of the diff map intact.
func NewLosslessWebP() (*WebP, error) {
	opts, err := webp.NewEncOptionsByPreset(webp.PresetDrawing, webp.LosslessDefaultQuality)
	if err != nil {
		return nil, errors.WithMessage(err, "[WebP] invalid preset")
	}
	opts.Lossless = true
	if err = opts.SetupLosslessPreset(webp.LosslessDefaultLevel); err != nil {
		return nil, errors.WithMessage(err, "[WebP] invalid lossless level")
	}
	if err = opts.Validate(); err != nil {
		return nil, errors.WithMessage(err, "[WebP] invalid options")
	}
	return &WebP{Opts: opts}, nil
}

func (wp *WebP) Encode(w io.Writer, m image.Image) error {
	// libwebp takes RGBA input only
	src := image.NewNRGBA(m.Bounds())
	draw.Draw(src, src.Bounds(), m, m.Bounds().Min, draw.Src)

	data, err := webp.EncodeSlice(src, wp.Opts)
	if err != nil {
		return errors.Wrap(err, "[WebP] encode failed")
	}
	if _, err = w.Write(data); err != nil {
		return errors.Wrap(err, "[WebP] write to output failed")
	}
	return nil
}
