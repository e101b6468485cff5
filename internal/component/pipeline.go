package component

import (
	"context"
	"github.com/mocukie/imgdiff/pkg/eventbus"
	"io"
)

// Run wires scanner, transfer and monitor over a fresh event bus and blocks
// until every job has been reported.
func Run(ctx context.Context, conf *Config, stdout, stderr, logOut io.Writer) *Monitor {
	if conf.JobQueue == nil {
		conf.JobQueue = make(chan *Job, 1024)
	}
	if conf.MaxGo <= 0 {
		conf.MaxGo = 1
	}
	var (
		eb       = eventbus.New()
		monitor  = NewMonitor(eb, conf, stdout, stderr, logOut)
		transfer = NewTransfer(eb, conf)
		scanner  = NewPathScanner(eb, conf)
	)

	go transfer.Start(ctx)
	go scanner.Scan(ctx)
	monitor.Start(ctx)
	return monitor
}
