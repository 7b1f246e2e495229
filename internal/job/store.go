// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ZSC714725/loopmate/internal/chapters"
	"github.com/ZSC714725/loopmate/internal/logger"

	"github.com/lithammer/shortuuid/v4"
)

// State of a job
type State string

const (
	StateRunning   State = "running"
	StateFinished  State = "finished"
	StateCancelled State = "cancelled"
)

// Progress counts resolved duration lookups
type Progress struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

// Snapshot is a consistent copy of a job's state
type Snapshot struct {
	ID        string
	Reference string
	Request   Request
	State     State
	Progress  Progress
	Result    chapters.Result
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job is a chapter computation running in the background
type Job struct {
	ID        string
	Reference string
	CreatedAt time.Time

	request Request
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.RWMutex
	state     State
	progress  Progress
	result    chapters.Result
	updatedAt time.Time
}

// Snapshot returns the current state of the job
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return Snapshot{
		ID:        j.ID,
		Reference: j.Reference,
		Request:   j.request.clone(),
		State:     j.state,
		Progress:  j.progress,
		Result:    j.result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.updatedAt,
	}
}

// IsRunning returns whether the job is still computing
func (j *Job) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state == StateRunning
}

// Done is closed once the job finished or was cancelled
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job is done or ctx expires
func (j *Job) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-j.done:
		return j.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (j *Job) resolved() {
	j.mu.Lock()
	j.progress.Resolved++
	j.updatedAt = time.Now()
	j.mu.Unlock()
}

func (j *Job) finish(state State, result chapters.Result) {
	j.mu.Lock()
	j.state = state
	j.result = result
	j.updatedAt = time.Now()
	j.mu.Unlock()
	close(j.done)
}

// Store manages jobs in memory
type Store interface {
	Add(req *Request) (*Job, error)
	Get(id string) (*Job, error)
	List(reference string) []*Job
	Delete(id string) error
	Counts() map[State]int
	Close()
}

// Config for a Store
type Config struct {
	// MaxJobs bounds the number of retained jobs; 0 means DefaultMaxJobs
	MaxJobs int
}

const DefaultMaxJobs = 100

type store struct {
	lookup  chapters.Lookup
	logger  logger.Logger
	maxJobs int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	jobs   map[string]*Job
	seq    uint64
	closed bool
	mu     sync.RWMutex
}

// NewStore creates a job store resolving durations with lookup
func NewStore(lookup chapters.Lookup, log logger.Logger, config Config) Store {
	if log == nil {
		log = logger.Nop()
	}
	maxJobs := config.MaxJobs
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &store{
		lookup:  lookup,
		logger:  log,
		maxJobs: maxJobs,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*Job),
	}
}

func (s *store) Add(req *Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if len(s.jobs) >= s.maxJobs && !s.evictLocked() {
		return nil, ErrTooManyJobs
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(s.ctx)
	s.seq++
	j := &Job{
		ID:        shortuuid.New(),
		Reference: req.Reference,
		CreatedAt: now,
		request:   req.clone(),
		seq:       s.seq,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateRunning,
		progress:  Progress{Total: lookupsFor(req.Paths)},
		updatedAt: now,
	}
	s.jobs[j.ID] = j

	s.wg.Add(1)
	go s.run(ctx, j)

	s.logger.Info("job %s started: %d clips", j.ID, len(req.Paths))
	return j, nil
}

// lookupsFor is the number of lookups Compute performs for paths
func lookupsFor(paths []string) int {
	if len(paths) < 2 {
		return 0
	}
	return len(paths)
}

// evictLocked drops the oldest job that is no longer running
func (s *store) evictLocked() bool {
	var oldest *Job
	for _, j := range s.jobs {
		if j.IsRunning() {
			continue
		}
		if oldest == nil || j.seq < oldest.seq {
			oldest = j
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.jobs, oldest.ID)
	s.logger.Debug("job %s evicted", oldest.ID)
	return true
}

func (s *store) run(ctx context.Context, j *Job) {
	defer s.wg.Done()
	defer j.cancel()

	counting := chapters.LookupFunc(func(ctx context.Context, path string) (float64, error) {
		defer j.resolved()
		return s.lookup.Duration(ctx, path)
	})

	calc := chapters.NewCalculator(counting, s.logger)
	res := calc.Compute(ctx, j.request.Paths, j.request.Padding)

	if ctx.Err() != nil {
		j.finish(StateCancelled, chapters.Result{})
		s.logger.Info("job %s cancelled", j.ID)
		return
	}

	j.finish(StateFinished, res)
	s.logger.Info("job %s finished: %d lines, %d failed lookups", j.ID, len(res.Lines), len(res.Failures))
}

func (s *store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j, nil
}

func (s *store) List(reference string) []*Job {
	s.mu.RLock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if len(reference) > 0 && j.Reference != reference {
			continue
		}
		out = append(out, j)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].seq < out[b].seq })
	return out
}

func (s *store) Delete(id string) error {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	j.cancel()
	return nil
}

func (s *store) Counts() map[State]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[State]int{StateRunning: 0, StateFinished: 0, StateCancelled: 0}
	for _, j := range s.jobs {
		counts[j.Snapshot().State]++
	}
	return counts
}

// Close cancels all running jobs and waits for them to return
func (s *store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
