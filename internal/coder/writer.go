package coder

import (
	"bufio"
	"github.com/mocukie/imgdiff/internal/iox"
	"github.com/pkg/errors"
	"image"
)

// DiffWriter encodes a diff map into an output. The output is only created
// when Emit is called and is removed again if encoding fails.
type DiffWriter struct {
	Out     iox.Output
	Encoder Encoder
}

func (dw *DiffWriter) Emit(m *image.Gray) (err error) {
	if err = dw.Out.Open(); err != nil {
		return errors.WithMessagef(err, "can not create <%s>", dw.Out.Path())
	}
	defer func() {
		if err != nil {
			_ = dw.Out.Discard()
		}
	}()

	w := bufio.NewWriter(dw.Out)
	if err = dw.Encoder.Encode(w, m); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "flush <%s> failed", dw.Out.Path())
	}
	return dw.Out.Close()
}
