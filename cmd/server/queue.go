package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/models"
)

const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

var ErrQueueFull = errors.New("analysis queue is full")

type analysisJob struct {
	id    string
	songs []models.Song
	force bool
}

// analysisQueue runs submitted analysis jobs one at a time. Similarity lists
// are read-modify-write, so passes over the same store must not overlap.
type analysisQueue struct {
	service acousticsim.Service
	log     acousticsim.Logger
	jobs    chan analysisJob
	wg      sync.WaitGroup

	mu     sync.RWMutex
	status map[string]*JobResponse
}

func newAnalysisQueue(service acousticsim.Service, log acousticsim.Logger, size int) *analysisQueue {
	if size <= 0 {
		size = 64
	}
	return &analysisQueue{
		service: service,
		log:     log,
		jobs:    make(chan analysisJob, size),
		status:  make(map[string]*JobResponse),
	}
}

// Start launches the worker. Jobs still queued when ctx ends are marked failed.
func (q *analysisQueue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for job := range q.jobs {
			q.run(ctx, job)
		}
	}()
}

// Submit queues songs for analysis and returns the job id. It does not block.
func (q *analysisQueue) Submit(songs []models.Song, force bool) (string, error) {
	job := analysisJob{id: uuid.NewString(), songs: songs, force: force}

	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case q.jobs <- job:
	default:
		return "", ErrQueueFull
	}
	q.status[job.id] = &JobResponse{
		JobID:    job.id,
		Status:   JobQueued,
		Songs:    len(songs),
		QueuedAt: time.Now().UTC(),
	}
	return job.id, nil
}

// Stop closes the queue and waits for the worker to drain it.
func (q *analysisQueue) Stop() {
	close(q.jobs)
	q.wg.Wait()
}

// Status returns a copy of the job's state.
func (q *analysisQueue) Status(id string) (JobResponse, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	st, ok := q.status[id]
	if !ok {
		return JobResponse{}, false
	}
	return *st, true
}

// Pending counts jobs not yet finished.
func (q *analysisQueue) Pending() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	n := 0
	for _, st := range q.status {
		if st.Status == JobQueued || st.Status == JobRunning {
			n++
		}
	}
	return n
}

func (q *analysisQueue) run(ctx context.Context, job analysisJob) {
	q.setStatus(job.id, JobRunning, nil)
	if err := ctx.Err(); err != nil {
		q.setStatus(job.id, JobFailed, err)
		return
	}

	q.log.Infof("Job %s: analyzing %d song(s)", job.id, len(job.songs))
	err := q.analyze(ctx, job)
	if err != nil {
		q.log.Errorf("Job %s failed: %v", job.id, err)
		q.setStatus(job.id, JobFailed, err)
		return
	}
	q.setStatus(job.id, JobDone, nil)
}

func (q *analysisQueue) analyze(ctx context.Context, job analysisJob) error {
	if !job.force {
		return q.service.AnalyzeSongs(ctx, job.songs)
	}
	var all []models.LoadedSegment
	for _, s := range job.songs {
		segs, err := q.service.LoadSong(ctx, s, true)
		if err != nil {
			return err
		}
		all = append(all, segs...)
	}
	return q.service.AnalyzeSegments(ctx, all)
}

func (q *analysisQueue) setStatus(id, status string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := q.status[id]
	st.Status = status
	if err != nil {
		st.Error = err.Error()
	}
	if status == JobDone || status == JobFailed {
		now := time.Now().UTC()
		st.FinishedAt = &now
	}
}
