package iox

import (
	"io"
)

type Input interface {
	io.Reader
	Path() string
	Open() error
	Close() error
}

type Output interface {
	io.Writer
	Path() string
	Open() error
	Close() error
	// Discard closes and removes a partially written output.
	Discard() error
}
