package main

import (
	"os"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var stageLabels = map[string]string{
	"load":   "Loading:  ",
	"bucket": "Matching: ",
	"merge":  "Merging:  ",
}

// progressBars renders engine progress callbacks as one bar per stage. A
// stage that restarts after completing gets a fresh bar.
type progressBars struct {
	mu   sync.Mutex
	p    *mpb.Progress
	bars map[string]*mpb.Bar
}

func newProgressBars() *progressBars {
	return &progressBars{
		p:    mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr)),
		bars: make(map[string]*mpb.Bar),
	}
}

// Update has the acousticsim.ProgressFunc signature.
func (pb *progressBars) Update(stage string, done, total int) {
	if total <= 0 {
		return
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()

	bar, ok := pb.bars[stage]
	if !ok || bar.Completed() {
		bar = pb.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name(stageLabels[stage]),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
		pb.bars[stage] = bar
	}
	bar.SetCurrent(int64(done))
}

// Wait aborts bars left unfinished by a cancelled run and flushes output.
func (pb *progressBars) Wait() {
	pb.mu.Lock()
	for _, bar := range pb.bars {
		if !bar.Completed() {
			bar.Abort(false)
		}
	}
	pb.mu.Unlock()
	pb.p.Wait()
}
