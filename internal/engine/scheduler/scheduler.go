// Package scheduler loads and transforms discovered modules on a pool of workers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// TaskStatus represents the status of a module task.
type TaskStatus string

const (
	// StatusPending indicates the module is claimed and queued.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates a worker is processing the module.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the module was read and transformed.
	StatusCompleted TaskStatus = "Completed"
	// StatusCached indicates the module content came from the cache.
	StatusCached TaskStatus = "Cached"
	// StatusFailed indicates reading or transforming the module failed.
	StatusFailed TaskStatus = "Failed"
)

// Expander records the edges of a processed module and claims its new targets.
type Expander interface {
	Expand(m *domain.Module) []domain.BuildTask
}

// Job is the per-build input of Run.
type Job struct {
	// Roots are the claimed entry and include tasks.
	Roots       []domain.BuildTask
	Expander    Expander
	Cache       *Cache
	Transformer ports.Transformer
	Telemetry   ports.Telemetry
	// Workers is the pool size. Values below 1 mean one worker.
	Workers int
	// ContinueOnError keeps processing after a failed module. The run still fails.
	ContinueOnError bool
	// Root is used to label progress vertices with relative paths.
	Root string
}

// Result is what a run produced.
type Result struct {
	Modules   map[domain.ModuleID]*domain.Module
	Status    map[domain.ModuleID]TaskStatus
	Processed int
	CacheHits int
}

// Scheduler manages the processing of modules.
type Scheduler struct {
	reader ports.SourceReader
	logger ports.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(reader ports.SourceReader, logger ports.Logger) *Scheduler {
	return &Scheduler{
		reader: reader,
		logger: logger,
	}
}

// Run processes the job roots and every module they transitively import.
// It returns once the queue is empty and no worker holds a task. With
// ContinueOnError unset the first failure stops new work; tasks already in
// flight still finish.
func (s *Scheduler) Run(ctx context.Context, job Job) (*Result, error) {
	state := newRunState(job)

	stop := context.AfterFunc(ctx, func() {
		state.halt(ctx.Err())
	})
	defer stop()

	workers := max(job.Workers, 1)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for {
				task, ok := state.next()
				if !ok {
					return nil
				}
				tasks, err := s.process(ctx, job, state, task)
				state.done(task, tasks, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return state.result(), state.err()
}

// process loads one module from the cache or from disk and expands it.
func (s *Scheduler) process(
	ctx context.Context,
	job Job,
	state *runState,
	task domain.BuildTask,
) ([]domain.BuildTask, error) {
	id := task.ID
	ctx, vertex := job.Telemetry.Record(ctx, label(job.Root, id))

	m := &domain.Module{ID: id, Kind: domain.KindForPath(id.String())}

	if content, hit := job.Cache.Get(id); hit {
		m.Content = content
		vertex.Cached()
		vertex.Log(domain.LogLevelDebug, "served from transform cache")
		state.setStatus(id, StatusCached)
		s.logger.Debug("cache hit", "module", id.String())
	} else {
		raw, err := s.reader.Read(id)
		if err != nil {
			vertex.Complete(err)
			return nil, err
		}

		out, err := job.Transformer.Transform(ctx, id, m.Kind, raw)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", id.String())
			vertex.Complete(err)
			return nil, err
		}

		job.Cache.put(id, out)
		m.Content = out
		s.logger.Debug("transformed module", "module", id.String(), "seq", task.Seq)
	}

	tasks := job.Expander.Expand(m)
	for _, ref := range m.Imports {
		if ref.Err != nil {
			vertex.Log(domain.LogLevelWarn, fmt.Sprintf("dropped import %q: %v", ref.Spec, ref.Err))
		}
	}
	state.store(m)
	vertex.Complete(nil)
	return tasks, nil
}

func label(root string, id domain.ModuleID) string {
	if root == "" {
		return id.String()
	}
	rel, err := filepath.Rel(root, id.String())
	if err != nil {
		return id.String()
	}
	return filepath.ToSlash(rel)
}

type runState struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []domain.BuildTask
	inFlight int
	stopped  bool
	failFast bool
	errs     []error

	modules   map[domain.ModuleID]*domain.Module
	status    map[domain.ModuleID]TaskStatus
	processed int
	hits      int
}

func newRunState(job Job) *runState {
	state := &runState{
		queue:    append([]domain.BuildTask(nil), job.Roots...),
		failFast: !job.ContinueOnError,
		modules:  make(map[domain.ModuleID]*domain.Module),
		status:   make(map[domain.ModuleID]TaskStatus),
	}
	state.cond = sync.NewCond(&state.mu)
	for _, t := range job.Roots {
		state.status[t.ID] = StatusPending
	}
	return state
}

// next blocks until a task is available or the run is drained.
func (state *runState) next() (domain.BuildTask, bool) {
	state.mu.Lock()
	defer state.mu.Unlock()

	for {
		if state.stopped {
			return domain.BuildTask{}, false
		}
		if len(state.queue) > 0 {
			task := state.queue[0]
			state.queue = state.queue[1:]
			state.inFlight++
			state.status[task.ID] = StatusRunning
			return task, true
		}
		if state.inFlight == 0 {
			return domain.BuildTask{}, false
		}
		state.cond.Wait()
	}
}

// done releases a task, queues the targets it claimed and records failures.
func (state *runState) done(task domain.BuildTask, tasks []domain.BuildTask, err error) {
	state.mu.Lock()
	defer state.mu.Unlock()

	state.inFlight--
	state.processed++
	if err != nil {
		state.status[task.ID] = StatusFailed
		state.errs = append(state.errs, err)
		if state.failFast {
			state.stopped = true
			state.queue = nil
		}
	} else {
		if state.status[task.ID] == StatusCached {
			state.hits++
		} else {
			state.status[task.ID] = StatusCompleted
		}
		if !state.stopped {
			for _, t := range tasks {
				state.status[t.ID] = StatusPending
			}
			state.queue = append(state.queue, tasks...)
		}
	}
	state.cond.Broadcast()
}

func (state *runState) halt(cause error) {
	state.mu.Lock()
	defer state.mu.Unlock()
	if !state.stopped {
		state.stopped = true
		state.queue = nil
		state.errs = append(state.errs, cause)
	}
	state.cond.Broadcast()
}

func (state *runState) setStatus(id domain.ModuleID, status TaskStatus) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.status[id] = status
}

func (state *runState) store(m *domain.Module) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.modules[m.ID] = m
}

func (state *runState) result() *Result {
	state.mu.Lock()
	defer state.mu.Unlock()
	return &Result{
		Modules:   state.modules,
		Status:    state.status,
		Processed: state.processed,
		CacheHits: state.hits,
	}
}

func (state *runState) err() error {
	state.mu.Lock()
	defer state.mu.Unlock()
	return errors.Join(state.errs...)
}
