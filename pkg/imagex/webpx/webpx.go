package webpx

import (
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/mocukie/webp-go/webp"
	"github.com/pkg/errors"
	"io"
	"io/ioutil"
)

const webpMagic = "RIFF????WEBPVP8"

var decodeOpts = webp.NewDecOptions()

func init() {
	decodeOpts.ImageType = webp.TypeNRGBA
	imagex.RegisterFormat("webp", webpMagic, NewStream)
}

// NewStream decodes a whole WebP image with libwebp. The bitstream has no
// row order a reader could follow, so the result is always a Frame in
// RGBA(8), lossy and lossless files alike.
func NewStream(r io.Reader) (imagex.Stream, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read webp")
	}
	img, err := webp.DecodeSlice(data, decodeOpts)
	if err != nil {
		return nil, errors.Wrap(err, "decode webp")
	}
	frame, err := imagex.FrameFromImage(img, imagex.RGBA(8))
	if err != nil {
		return nil, err
	}
	return frame, nil
}
