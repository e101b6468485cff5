package main

import (
	"context"
	"fmt"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mocukie/imgdiff/internal/coder"
	"github.com/mocukie/imgdiff/internal/component"
	"github.com/mocukie/imgdiff/internal/diff"
	"github.com/mocukie/imgdiff/pkg/imagex/pngx"
	"github.com/mocukie/imgdiff/pkg/imagex/webpx"
	"github.com/mocukie/webp-go/webp"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"gopkg.in/vrecan/death.v3"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

const (
	version = "1.0.0"

	exitFailure = 1
	exitUsage   = 2
)

var (
	pattern string
	quiet   bool

	cmdFlags    *flag.FlagSet
	configFlags *flag.FlagSet
)

func initConfig() *component.Config {
	var conf = new(component.Config)
	configFlags = flag.NewFlagSet("configFlags", flag.ContinueOnError)
	configFlags.BoolVarP(&conf.Recursively, "recursive", "r", false, "scan input directories recursively in batch mode")
	configFlags.StringVarP(&pattern, "pattern", "p", "*.png|*.jpg|*.jpeg|*.bmp|*.tiff|*.webp", "compare glob pattern in batch mode")
	configFlags.StringVarP(&conf.OutFormat, "format", "f", "png", "diff image format in batch mode, one of: png, bmp, tiff, webp")
	configFlags.IntVar(&conf.MaxGo, "max_go", runtime.NumCPU(), "max concurrent comparisons in batch mode")
	configFlags.IntVarP(&conf.Diff.Workers, "row_workers", "j", 1, "goroutines per comparison, above 1 decodes whole images first")
	configFlags.StringVar(&conf.LogPath, "log", "", "detailed log file path")
	configFlags.BoolVarP(&quiet, "quiet", "q", false, "hide progress line in batch mode")
	configFlags.SortFlags = false
	return conf
}

func setupConfig(conf *component.Config) error {
	var err error

	if cmdFlags.NArg() != 3 {
		return errors.Errorf("expect 3 arguments, got %d", cmdFlags.NArg())
	}
	conf.Left = filepath.Clean(cmdFlags.Arg(0))
	conf.Right = filepath.Clean(cmdFlags.Arg(1))
	conf.Dest = filepath.Clean(cmdFlags.Arg(2))

	lstat, err := os.Stat(conf.Left)
	if err != nil {
		return errors.WithMessage(err, "invalid left input")
	}
	rstat, err := os.Stat(conf.Right)
	if err != nil {
		return errors.WithMessage(err, "invalid right input")
	}
	if lstat.IsDir() != rstat.IsDir() {
		return errors.New("left and right input must both be files or both be directories")
	}
	conf.Batch = lstat.IsDir()

	if conf.Batch {
		conf.Match, err = component.NewGlobMatcher(pattern)
		if err != nil {
			return errors.WithMessage(err, "invalid pattern: "+pattern)
		}
		conf.Encoder, err = coder.ByName(conf.OutFormat)
	} else {
		conf.Encoder, err = coder.ForPath(conf.Dest)
	}
	if err != nil {
		return err
	}

	if conf.MaxGo <= 0 {
		conf.MaxGo = runtime.NumCPU()
	}
	if conf.Diff.Workers <= 0 {
		conf.Diff.Workers = 1
	}
	conf.Diff.Metric = diff.AverageDelta

	if conf.LogPath != "" {
		conf.LogPath = filepath.Clean(conf.LogPath)
	}

	return nil
}

func openLog(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "can not make log directory <%s>", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "can not create log file")
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

func console(f *os.File) (io.Writer, bool) {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		if f == os.Stderr {
			return colorable.NewColorableStderr(), true
		}
		return colorable.NewColorableStdout(), true
	}
	return colorable.NewNonColorable(f), false
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintf(os.Stderr, "\t%v [options] <left-image> <right-image> <output-image>\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "\t%v [options] <left-dir> <right-dir> <output-dir>\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprint(os.Stderr, cmdFlags.FlagUsages())
}

func main() {
	os.Exit(run())
}

func run() int {
	var err error

	conf := initConfig()

	//parse argument
	cmdFlags = flag.NewFlagSet("cmdFlags", flag.ContinueOnError)
	cmdFlags.AddFlagSet(configFlags)
	showVersion := cmdFlags.BoolP("version", "v", false, "print version")
	cmdFlags.Usage = printUsage
	cmdFlags.SortFlags = false
	err = cmdFlags.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		return 0
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if *showVersion {
		fmt.Printf("imgdiff v%s (libwebp v%v)\n", version, webp.EncoderVersion())
		return 0
	}

	if err = setupConfig(conf); err != nil {
		fmt.Fprintf(os.Stderr, "imgdiff: %v\n", err)
		printUsage()
		return exitUsage
	}

	logOut, err := openLog(conf.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgdiff: %v\n", err)
		return exitFailure
	}
	defer logOut.Close()

	stdout, tty := console(os.Stdout)
	stderr, _ := console(os.Stderr)
	conf.Progress = conf.Batch && !quiet && tty
	conf.JobQueue = make(chan *component.Job, 1024)

	ctx, abort := context.WithCancel(context.Background())
	defer abort()
	hook := death.NewDeath(syscall.SIGINT, syscall.SIGTERM)
	go hook.WaitForDeathWithFunc(abort)

	monitor := component.Run(ctx, conf, stdout, stderr, logOut)
	if monitor.Errs > 0 || ctx.Err() != nil {
		return exitFailure
	}
	return 0
}

//register format
var _ = pngx.NewStream
var _ = webpx.NewStream
var _ = jpeg.Decode
var _ = tiff.Decode
var _ = bmp.Decode
