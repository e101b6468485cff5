package component

import (
	"context"
	"github.com/mocukie/imgdiff/pkg/eventbus"
	"github.com/pkg/errors"
	"sync"
)

const (
	EvtTransferDone    = "transfer.done"
	EvtTransferJobDone = "transfer.job-done"
)

// Transfer runs queued jobs on up to maxGo goroutines until the scanner
// closes the queue.
type Transfer struct {
	maxGo    int
	jobQueue <-chan *Job
	eb       *eventbus.Bus
}

func NewTransfer(eb *eventbus.Bus, config *Config) *Transfer {
	return &Transfer{
		maxGo:    config.MaxGo,
		jobQueue: config.JobQueue,
		eb:       eb,
	}
}

func (tr *Transfer) Start(ctx context.Context) {
	var wg = new(sync.WaitGroup)
	for i := 0; i < tr.maxGo; i++ {
		wg.Add(1)
		go tr.worker(ctx, wg)
	}
	wg.Wait()
	tr.eb.Publish(EvtTransferDone, nil)
}

func (tr *Transfer) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range tr.jobQueue {
		// queued jobs still report back so the monitor sees every one
		if err := ctx.Err(); err != nil {
			job.Err = errors.Wrap(err, "[Transfer] aborted")
		} else {
			job.do()
		}
		tr.eb.Publish(EvtTransferJobDone, job)
	}
}
