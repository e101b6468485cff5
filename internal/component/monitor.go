package component

import (
	"context"
	"fmt"
	"github.com/mattn/go-colorable"
	"github.com/mocukie/imgdiff/pkg/eventbus"
	"io"
	"log"
	"time"
)

var requireTopics = []eventbus.Topic{
	EvtScannerNewJob,
	EvtScannerError,
	EvtScannerDone,
	EvtTransferJobDone,
	EvtTransferDone,
}

type counter struct {
	v int
	t int
}

// Monitor collects scanner and transfer events, reports them on the console
// and in the log, and returns once every queued job has been accounted for.
type Monitor struct {
	eb         *eventbus.Bus
	sub        eventbus.Subscriber
	config     *Config
	stdout     io.Writer
	stderr     io.Writer
	errLog     *log.Logger
	warnLog    *log.Logger
	infoLog    *log.Logger
	Compared   int
	Differ     int
	Errs       int
	jobCount   counter
	scannerErr int
	startTime  time.Time
}

func NewMonitor(eb *eventbus.Bus, config *Config, stdout, stderr, logOut io.Writer) *Monitor {
	m := &Monitor{eb: eb, config: config, stdout: stdout, stderr: stderr}
	flag := log.LstdFlags | log.Lmicroseconds
	m.errLog = log.New(logOut, "[ERROR] ", flag)
	m.warnLog = log.New(logOut, "[WARN ] ", flag)
	m.infoLog = log.New(logOut, "[INFO ] ", flag)
	// subscribe before scanner and transfer start publishing
	m.sub = m.subscribe()

	return m
}

func (mo *Monitor) Start(ctx context.Context) {
	var (
		sub          = mo.sub
		transferDone = false
		tick         <-chan time.Time
		sc           *scannerResult
	)
	mo.startTime = time.Now()
	if mo.config.Progress {
		t1s := time.NewTicker(1 * time.Second)
		defer t1s.Stop()
		tick = t1s.C
		mo.hideCursor()
	}
	mo.infoLog.Printf("compare <%s> <%s> -> <%s>\n", mo.config.Left, mo.config.Right, mo.config.Dest)

Loop:
	for {
		select {
		case msg := <-sub:
			switch msg.Topic {
			case EvtTransferDone:
				transferDone = true
			case EvtScannerDone:
				sc, _ = msg.Data.(*scannerResult)
			default:
				mo.processEvent(msg)
			}
		case <-tick:
			mo.updateConsole()
		case <-ctx.Done():
			mo.warnLog.Printf("aborted: %v\n", ctx.Err())
			break Loop
		}

		if transferDone && sc != nil &&
			mo.jobCount.v == sc.jobCount &&
			mo.jobCount.t == sc.jobCount &&
			mo.scannerErr == sc.errCount { //wait for last job event
			break Loop
		}
	}
	mo.unSubscribe(sub)
	if mo.config.Progress {
		mo.clearLine()
		mo.showCursor()
	}
	if mo.config.Batch {
		mo.printSummary()
	}
	mo.logCounter()
}

func (mo *Monitor) subscribe() eventbus.Subscriber {
	sub := make(eventbus.Subscriber, 512)
	mo.eb.Subscribe(sub, requireTopics...)
	return sub
}

func (mo *Monitor) unSubscribe(sub eventbus.Subscriber) {
	mo.eb.UnSubscribe(sub, requireTopics...)
}

func (mo *Monitor) processEvent(msg eventbus.Message) {
	switch msg.Topic {
	case EvtScannerNewJob:
		mo.jobCount.v++
	case EvtTransferJobDone:
		mo.jobCount.t++
		job, _ := msg.Data.(*Job)
		if job.Err != nil {
			mo.Errs++
			mo.reportError(job.Err)
			mo.errLog.Printf("[Transfer] <%s> <%s>\n%+v\n", job.Left.Path(), job.Right.Path(), job.Err)
			break
		}
		mo.Compared++
		if job.Result.DiffCount > 0 {
			mo.Differ++
			mo.reportDiff(job)
			mo.infoLog.Printf("%s: %d diffs, %v -> <%s>\n", job.Rel, job.Result.DiffCount, job.Result.Format, job.Out.Path())
		}
	case EvtScannerError:
		mo.scannerErr++
		mo.Errs++
		err, _ := msg.Data.(error)
		mo.reportError(err)
		mo.errLog.Printf("[Scanner] %+v\n", err)
	}
	mo.updateConsole()
}

func (mo *Monitor) reportDiff(job *Job) {
	mo.clearLine()
	if mo.config.Batch {
		fmt.Fprintf(mo.stdout, "diffs: %d %s\n", job.Result.DiffCount, job.Rel)
	} else {
		fmt.Fprintf(mo.stdout, "diffs: %d\n", job.Result.DiffCount)
	}
}

func (mo *Monitor) reportError(err error) {
	mo.clearLine()
	fmt.Fprintf(mo.stderr, "imgdiff: %v\n", err)
}

func (mo *Monitor) updateConsole() {
	if !mo.config.Progress {
		return
	}
	fmt.Fprint(mo.stdout, "\r")
	fmt.Fprintf(mo.stdout, "\x1b[36mcompared\x1b[0m: %d/%d | \x1b[33mdiffer\x1b[0m: %d | \x1B[31merror\x1b[0m: %d | elapsed: %10v",
		mo.jobCount.t, mo.jobCount.v, mo.Differ, mo.Errs, time.Since(mo.startTime))
}

func (mo *Monitor) printSummary() {
	fmt.Fprintf(mo.stdout, "compared: %d | differ: %d | error: %d | elapsed: %v\n",
		mo.Compared, mo.Differ, mo.Errs, time.Since(mo.startTime).Round(time.Millisecond))
}

func (mo *Monitor) logCounter() {
	mo.infoLog.Printf("compared: %d | differ: %d | error: %d | elapsed: %10v\n",
		mo.Compared, mo.Differ, mo.Errs, time.Since(mo.startTime))
}

func (mo *Monitor) clearLine() {
	if mo.config.Progress {
		fmt.Fprint(mo.stdout, "\r\x1b[K")
	}
}

func (mo *Monitor) hideCursor() {
	fmt.Fprint(mo.stdout, "\033[?25l")
}
func (mo *Monitor) showCursor() {
	fmt.Fprint(mo.stdout, "\033[?25h")
}

func init() {
	b := true
	colorable.EnableColorsStdout(&b)
}
