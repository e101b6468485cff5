package diff

import (
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"image"
	"io"
)

// Emitter receives the finished diff map. Run calls it at most once, and only
// when at least one pixel differs.
type Emitter interface {
	Emit(m *image.Gray) error
}

type Options struct {
	// Workers above 1 decode both images fully and compare disjoint row
	// bands concurrently. Otherwise rows are streamed one at a time.
	Workers int
	Metric  Metric
}

type Result struct {
	Width, Height int
	Format        imagex.ColorFormat
	DiffCount     int
	DiffMap       *image.Gray
	Emitted       bool
}

type state uint8

const (
	stateInit state = iota
	stateStreaming
	stateDone
	stateFailed
)

type comparison struct {
	left, right imagex.Stream
	opts        Options
	emit        Emitter

	state  state
	err    error
	geo    Geometry
	bpp    int
	rowLen int
	acc    *Accumulator
}

// Run compares two row streams pixel by pixel. Any error aborts the whole
// comparison: no result is returned and nothing is emitted. The streams are
// not closed.
func Run(left, right imagex.Stream, emit Emitter, opts Options) (*Result, error) {
	c := &comparison{left: left, right: right, opts: opts, emit: emit}
	for {
		switch c.state {
		case stateInit:
			c.advance(c.init(), stateStreaming)
		case stateStreaming:
			if c.opts.Workers > 1 {
				c.advance(c.compareBands(), stateDone)
			} else {
				c.advance(c.stream(), stateDone)
			}
		case stateDone:
			return c.finish()
		case stateFailed:
			return nil, c.err
		}
	}
}

func (c *comparison) advance(err error, next state) {
	if err != nil {
		c.state, c.err, c.acc = stateFailed, err, nil
		return
	}
	c.state = next
}

func (c *comparison) init() error {
	c.geo = GeometryOf(c.left)
	if err := Validate(c.geo, GeometryOf(c.right)); err != nil {
		return err
	}
	bpp, err := c.geo.Format.BytesPerPixel()
	if err != nil {
		return err
	}
	c.bpp, c.rowLen = bpp, c.geo.Width*bpp

	for _, s := range []struct {
		side   Side
		stream imagex.Stream
	}{{Left, c.left}, {Right, c.right}} {
		if n := s.stream.RowLen(); n != c.rowLen {
			return errors.WithMessagef(ErrLengthMismatch, "%s rows are %d bytes, want %d", s.side, n, c.rowLen)
		}
	}
	return nil
}

func (c *comparison) stream() error {
	s := getScratch(c.rowLen, c.geo.Width)
	defer putScratch(s)

	c.acc = NewAccumulator(c.geo.Width, c.geo.Height)
	for row := 0; row < c.geo.Height; row++ {
		if err := c.left.ReadScanline(s.left); err != nil {
			return &ReadError{Side: Left, Row: row, Err: unexpected(err)}
		}
		if err := c.right.ReadScanline(s.right); err != nil {
			return &ReadError{Side: Right, Row: row, Err: unexpected(err)}
		}
		diffs, err := CompareScanline(s.left, s.right, c.bpp, c.opts.Metric, s.diffs)
		if err != nil {
			return errors.WithMessagef(err, "row %d", row)
		}
		s.diffs = diffs
		c.acc.ApplyRow(row, diffs)
	}
	return nil
}

func (c *comparison) compareBands() error {
	lf, err := materialize(c.left, Left)
	if err != nil {
		return err
	}
	rf, err := materialize(c.right, Right)
	if err != nil {
		return err
	}

	c.acc = NewAccumulator(c.geo.Width, c.geo.Height)
	height := c.geo.Height
	workers := c.opts.Workers
	if workers > height {
		workers = height
	}
	if workers == 0 {
		return nil
	}
	rowsPerBand := (height + workers - 1) / workers

	var (
		g     errgroup.Group
		bands []*Accumulator
	)
	for start := 0; start < height; start += rowsPerBand {
		end := start + rowsPerBand
		if end > height {
			end = height
		}
		band := c.acc.Band(start, end)
		bands = append(bands, band)
		g.Go(func() error {
			s := getScratch(0, c.geo.Width)
			defer putScratch(s)
			for row := start; row < end; row++ {
				diffs, err := CompareScanline(lf.Row(row), rf.Row(row), c.bpp, c.opts.Metric, s.diffs)
				if err != nil {
					return errors.WithMessagef(err, "row %d", row)
				}
				s.diffs = diffs
				band.ApplyRow(row, diffs)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.acc.Merge(bands...)
	return nil
}

func (c *comparison) finish() (*Result, error) {
	res := &Result{
		Width:     c.geo.Width,
		Height:    c.geo.Height,
		Format:    c.geo.Format,
		DiffCount: c.acc.Count(),
		DiffMap:   c.acc.DiffMap(),
	}
	if res.DiffCount == 0 || c.emit == nil {
		return res, nil
	}
	if err := c.emit.Emit(res.DiffMap); err != nil {
		return nil, &WriteError{Err: err}
	}
	res.Emitted = true
	return res, nil
}

func materialize(s imagex.Stream, side Side) (*imagex.Frame, error) {
	f, err := imagex.ReadFrame(s)
	if err == nil {
		return f, nil
	}
	var re *imagex.RowError
	if errors.As(err, &re) {
		return nil, &ReadError{Side: side, Row: re.Row, Err: re.Err}
	}
	return nil, &ReadError{Side: side, Err: err}
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
