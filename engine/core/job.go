package core

import (
	"sync"

	"github.com/cockroachdb/errors"
)

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")

// JobTask describes a job to be run. Run is required; OnFailure is called with the error Run
// returned, OnComplete after a successful Run.
type JobTask struct {
	Name       string
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

// JobSystem runs submitted tasks on a fixed set of workers. With one worker tasks run in submission
// order.
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	err := job.Run()
	if err != nil {
		if job.OnFailure != nil {
			job.OnFailure(err)
		} else {
			LogError("Job %s failed: %s", job.Name, err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

// Submit queues the provided job for execution. Blocks while the queue is full.
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	js.jobQueue <- jt
	return nil
}

// Shutdown stops the job system after the queued jobs ran. Safe to call twice.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}
