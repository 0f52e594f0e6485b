package mock

import (
	"avatar-video-api/domain"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrStubUnavailable = errors.New("stub service unavailable")

// RunnerOptions controls how a simulated asynchronous job behaves.
type RunnerOptions struct {
	// PendingPolls is the number of status checks answered as pending before completion.
	PendingPolls int
	// NeverComplete keeps every job pending forever.
	NeverComplete bool
	// FailStart makes Start return ErrStubUnavailable.
	FailStart bool
	// TransientErrors is the number of status checks that fail before the job answers normally.
	TransientErrors int
	// RemoteFailure makes the job report a failed status once it would have completed.
	RemoteFailure bool
	// EmptyResult completes the job without a result url.
	EmptyResult  bool
	ResultPrefix string
	StatusText   string
}

type runnerJob struct {
	polls  int
	errors int
}

// Runner simulates an external start/check-status service in memory.
type Runner struct {
	mu      sync.Mutex
	options RunnerOptions
	jobs    map[string]*runnerJob
	starts  []interface{}
	checks  int
}

func NewRunner(options RunnerOptions) *Runner {
	if options.ResultPrefix == "" {
		options.ResultPrefix = "https://cdn.example.com/stub"
	}
	if options.StatusText == "" {
		options.StatusText = "processing"
	}
	return &Runner{
		options: options,
		jobs:    make(map[string]*runnerJob),
	}
}

func (r *Runner) start(ctx context.Context, req interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, req)
	if r.options.FailStart {
		return "", ErrStubUnavailable
	}
	id := uuid.NewString()
	r.jobs[id] = &runnerJob{}
	return id, nil
}

func (r *Runner) status(ctx context.Context, id string) (domain.StageStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.StageStatus{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks++

	job, ok := r.jobs[id]
	if !ok {
		return domain.StageStatus{}, fmt.Errorf("unknown job %s", id)
	}
	if job.errors < r.options.TransientErrors {
		job.errors++
		return domain.StageStatus{}, ErrStubUnavailable
	}
	if r.options.NeverComplete || job.polls < r.options.PendingPolls {
		job.polls++
		return domain.StageStatus{StatusText: r.options.StatusText}, nil
	}
	if r.options.RemoteFailure {
		return domain.StageStatus{Failed: true, StatusText: "rejected by stub"}, nil
	}
	if r.options.EmptyResult {
		return domain.StageStatus{Completed: true}, nil
	}
	return domain.StageStatus{Completed: true, ResultURL: fmt.Sprintf("%s/%s.mp4", r.options.ResultPrefix, id)}, nil
}

// Starts returns the requests passed to Start, in call order.
func (r *Runner) Starts() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.starts...)
}

// Checks returns the number of status checks served.
func (r *Runner) Checks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checks
}
