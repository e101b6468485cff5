package imagex

import (
	"bufio"
	"github.com/pkg/errors"
	"image"
	"io"
	"sync"
	"sync/atomic"
)

var (
	formats     atomic.Value
	formatsLock sync.Mutex
)

type format struct {
	name, magic string
	open        func(io.Reader) (Stream, error)
}

// RegisterFormat adds a stream decoder tried before the image package
// registry. '?' in magic matches any byte.
func RegisterFormat(name, magic string, open func(io.Reader) (Stream, error)) {
	formatsLock.Lock()
	tmp, _ := formats.Load().([]format)
	formats.Store(append(tmp, format{name, magic, open}))
	formatsLock.Unlock()
}

type reader interface {
	io.Reader
	Peek(int) ([]byte, error)
}

func asReader(r io.Reader) reader {
	if rr, ok := r.(reader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

func match(header []byte, magic string) bool {
	if len(header) != len(magic) {
		return false
	}
	for i, b := range header {
		if magic[i] != b && magic[i] != '?' {
			return false
		}
	}
	return true
}

// Open returns a row stream over r. Formats registered here stream their rows,
// anything else known to the image package is decoded into a Frame.
func Open(r io.Reader) (Stream, string, error) {
	rr := asReader(r)
	tmp, _ := formats.Load().([]format)
	for _, f := range tmp {
		header, err := rr.Peek(len(f.magic))
		if err == nil && match(header, f.magic) {
			s, err := f.open(rr)
			if err != nil {
				return nil, f.name, errors.WithMessagef(err, "open %s stream", f.name)
			}
			return s, f.name, nil
		}
	}

	img, name, err := image.Decode(rr)
	if err != nil {
		return nil, name, errors.Wrap(err, "decode image")
	}
	frame, err := FrameFromImage(img, FormatOf(img))
	if err != nil {
		return nil, name, err
	}
	return frame, name, nil
}
