package component

import (
	"github.com/mocukie/imgdiff/internal/coder"
	"github.com/mocukie/imgdiff/internal/diff"
	"path"
	"path/filepath"
	"strings"
)

type PathMatcher func(pathname string) bool

type Config struct {
	Left        string
	Right       string
	Dest        string
	Batch       bool
	Recursively bool
	Match       PathMatcher
	OutFormat   string
	Encoder     coder.Encoder
	MaxGo       int
	Diff        diff.Options
	LogPath     string
	Progress    bool
	JobQueue    chan *Job
}

// NewGlobMatcher compiles a '|' separated list of glob patterns matched
// against the base name of a path, case-insensitively.
func NewGlobMatcher(pattern string) (PathMatcher, error) {
	patterns := strings.Split(strings.ToLower(pattern), "|")
	for _, s := range patterns {
		_, err := path.Match(s, "foobar")
		if err != nil {
			return nil, err
		}
	}

	return func(pathname string) bool {
		name := strings.ToLower(filepath.Base(pathname))
		var ok = false
		for _, s := range patterns {
			if ok, _ = path.Match(s, name); ok {
				break
			}
		}
		return ok
	}, nil
}
