package component

import (
	"github.com/mocukie/imgdiff/internal/coder"
	"github.com/mocukie/imgdiff/internal/diff"
	"github.com/mocukie/imgdiff/internal/iox"
	"github.com/mocukie/imgdiff/pkg/imagex"
	"github.com/pkg/errors"
)

// Job compares one pair of images and writes the diff map to Out when they
// differ.
type Job struct {
	Left    iox.Input
	Right   iox.Input
	Out     iox.Output
	Rel     string
	Encoder coder.Encoder
	Options diff.Options
	Result  *diff.Result
	Err     error
}

func (job *Job) do() {
	defer func() {
		for _, in := range []iox.Input{job.Left, job.Right} {
			if e := in.Close(); e != nil && job.Err == nil {
				job.Err = e
			}
		}
	}()

	left, err := job.open(job.Left, diff.Left)
	if err != nil {
		job.Err = err
		return
	}
	defer left.Close()

	right, err := job.open(job.Right, diff.Right)
	if err != nil {
		job.Err = err
		return
	}
	defer right.Close()

	res, err := diff.Run(left, right, &coder.DiffWriter{Out: job.Out, Encoder: job.Encoder}, job.Options)
	if err != nil {
		job.Err = errors.WithMessagef(err, "[Diff] <%s> <%s>", job.Left.Path(), job.Right.Path())
		return
	}
	job.Result = res
}

func (job *Job) open(in iox.Input, side diff.Side) (imagex.Stream, error) {
	if err := in.Open(); err != nil {
		return nil, errors.WithMessagef(err, "[Open] %s image", side)
	}
	s, _, err := imagex.Open(in)
	if err != nil {
		return nil, errors.WithMessagef(err, "[Decode] %s image <%s>", side, in.Path())
	}
	return s, nil
}
