package component

import (
	"context"
	"github.com/karrick/godirwalk"
	"github.com/mocukie/imgdiff/internal/iox"
	"github.com/mocukie/imgdiff/pkg/eventbus"
	"github.com/pkg/errors"
	"os"
	"path/filepath"
)

const (
	EvtScannerNewJob = "scanner.new-job"
	EvtScannerDone   = "scanner.done"
	EvtScannerError  = "scanner.error"
)

type scannerResult struct {
	jobCount int
	errCount int
}

// PathScanner pairs input images and queues a Job per pair. In batch mode
// every matching file under config.Left is paired with the file at the same
// relative path under config.Right.
type PathScanner struct {
	config *Config
	eb     *eventbus.Bus
	result *scannerResult
}

// config.Left, config.Right and config.Dest must be cleaned by filepath.Clean first
func NewPathScanner(eb *eventbus.Bus, config *Config) *PathScanner {
	return &PathScanner{eb: eb, config: config, result: new(scannerResult)}
}

func (sc *PathScanner) Scan(ctx context.Context) {
	var conf = sc.config
	defer func() {
		close(conf.JobQueue)
		sc.eb.Publish(EvtScannerDone, sc.result)
	}()

	if !conf.Batch {
		sc.sendJob(ctx, sc.newJob(conf.Left, conf.Right, conf.Dest, filepath.Base(conf.Left)))
		return
	}

	err := godirwalk.Walk(conf.Left, &godirwalk.Options{
		Callback: func(pathname string, de *godirwalk.Dirent) error {
			return sc.walkDir(ctx, pathname, de)
		},
		ErrorCallback: func(s string, e error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}
			sc.handleError(errors.Wrapf(e, "walk on file node <%s> failed", s))
			return godirwalk.SkipNode
		},
	})
	if err != nil && ctx.Err() == nil {
		sc.handleError(errors.Wrapf(err, "can not walk directory <%s>", conf.Left))
	}
}

func (sc *PathScanner) walkDir(ctx context.Context, pathname string, de *godirwalk.Dirent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var conf = sc.config
	if conf.Left == pathname {
		return nil
	} else if conf.Dest == pathname || conf.LogPath == pathname {
		return godirwalk.SkipThis
	}

	if de.IsDir() {
		if conf.Recursively {
			return nil
		}
		return godirwalk.SkipThis
	}

	if !conf.Match(pathname) {
		return nil
	}

	rel, err := filepath.Rel(conf.Left, pathname)
	if err != nil {
		sc.handleError(errors.WithStack(err))
		return nil
	}
	right := filepath.Join(conf.Right, rel)
	if stat, err := os.Stat(right); err != nil {
		sc.handleError(errors.Wrapf(err, "no counterpart for <%s>", pathname))
		return nil
	} else if stat.IsDir() {
		sc.handleError(errors.Errorf("counterpart of <%s> is a directory", pathname))
		return nil
	}

	out := filepath.Join(conf.Dest, rel)
	out = out[:len(out)-len(filepath.Ext(out))] + "." + conf.OutFormat
	if !sc.sendJob(ctx, sc.newJob(pathname, right, out, rel)) {
		return ctx.Err()
	}
	return nil
}

func (sc *PathScanner) newJob(left, right, out, rel string) *Job {
	return &Job{
		Left:    iox.NewFileInput(left),
		Right:   iox.NewFileInput(right),
		Out:     iox.NewFileOutput(out),
		Rel:     rel,
		Encoder: sc.config.Encoder,
		Options: sc.config.Diff,
	}
}

func (sc *PathScanner) handleError(err error) {
	sc.result.errCount++
	sc.eb.Publish(EvtScannerError, err)
}

func (sc *PathScanner) sendJob(ctx context.Context, job *Job) bool {
	select {
	case sc.config.JobQueue <- job:
		sc.result.jobCount++
		sc.eb.Publish(EvtScannerNewJob, job)
		return true
	case <-ctx.Done():
		return false
	}
}
