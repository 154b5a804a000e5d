package acousticsim

import (
	"sync"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// Candidate is a potential match found for a probe in one bucket.
type Candidate struct {
	SegmentID string
	SongID    string
	Distance  float64
}

type matchJob struct {
	index int
	probe models.LoadedSegment
}

// matcherPool answers nearest-neighbor queries for a batch of probes against
// one bucket. Workers share the bucket's read-only query object.
type matcherPool struct {
	bucket  *bucket
	k       int
	log     Logger
	jobs    chan matchJob
	wg      sync.WaitGroup
	results [][]Candidate
}

func newMatcherPool(b *bucket, k, probes int, log Logger) *matcherPool {
	return &matcherPool{
		bucket:  b,
		k:       k,
		log:     log,
		jobs:    make(chan matchJob, probes),
		results: make([][]Candidate, probes),
	}
}

// Start launches the worker goroutines.
func (p *matcherPool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results[job.index] = p.match(job.probe)
			}
		}()
	}
}

func (p *matcherPool) Submit(job matchJob) {
	p.jobs <- job
}

// Stop waits for every submitted probe and returns the candidates indexed
// by submission slot.
func (p *matcherPool) Stop() [][]Candidate {
	close(p.jobs)
	p.wg.Wait()
	return p.results
}

func (p *matcherPool) match(probe models.LoadedSegment) []Candidate {
	found, err := p.bucket.query.FindKNearest(probe.Vector, p.k)
	if err != nil {
		p.log.Warnf("bucket %d: probe %s: %v", p.bucket.index, probe.ID, err)
		return nil
	}
	out := make([]Candidate, len(found))
	for i, n := range found {
		e := p.bucket.entries[n.Offset]
		out[i] = Candidate{SegmentID: e.ID, SongID: e.SongID, Distance: n.Distance}
	}
	return out
}

// matchBucket runs every probe against bucket b.
func (s *similarityService) matchBucket(b *bucket, probes []models.LoadedSegment) [][]Candidate {
	pool := newMatcherPool(b, s.config.Matches, len(probes), s.log)
	pool.Start(min(s.config.MatchWorkers, len(probes)))
	for i, probe := range probes {
		pool.Submit(matchJob{index: i, probe: probe})
	}
	return pool.Stop()
}
