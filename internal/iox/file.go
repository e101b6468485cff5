package iox

import (
	"github.com/pkg/errors"
	"os"
	"path/filepath"
)

type FileInput struct {
	*os.File
	path string
}

func NewFileInput(path string) *FileInput {
	return &FileInput{path: path}
}

func (fi *FileInput) Path() string {
	return fi.path
}

func (fi *FileInput) Open() error {
	var err error
	fi.File, err = os.Open(fi.path)
	return errors.WithStack(err)
}

func (fi *FileInput) Close() error {
	if fi.File == nil {
		return nil
	}
	err := fi.File.Close()
	fi.File = nil
	return errors.WithStack(err)
}

// FileOutput creates its file, and any missing parent directory, only on Open.
type FileOutput struct {
	*os.File
	path    string
	created bool
}

func NewFileOutput(path string) *FileOutput {
	return &FileOutput{path: path}
}

func (fo *FileOutput) Path() string {
	return fo.path
}

func (fo *FileOutput) Open() error {
	if err := os.MkdirAll(filepath.Dir(fo.path), os.ModePerm); err != nil {
		return errors.Wrapf(err, "can not make output directory <%s>", filepath.Dir(fo.path))
	}
	var err error
	if fo.File, err = os.Create(fo.path); err != nil {
		return errors.WithStack(err)
	}
	fo.created = true
	return nil
}

func (fo *FileOutput) Close() error {
	if fo.File == nil {
		return nil
	}
	err := fo.File.Close()
	fo.File = nil
	return errors.WithStack(err)
}

func (fo *FileOutput) Discard() error {
	if !fo.created {
		return nil
	}
	_ = fo.Close()
	fo.created = false
	if err := os.Remove(fo.path); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
