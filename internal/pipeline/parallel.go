package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/namescan/internal/segment"
)

// preprocessJob is one viewport waiting for a worker.
type preprocessJob struct {
	index int
	image image.Image
}

// preprocessResult is what a worker reports back for one viewport.
type preprocessResult struct {
	index int
	image *image.NRGBA
	stats segment.Stats
	err   error
}

// preprocessAll fans the viewports out over the worker pool and joins every
// task before returning. Cleaned images are indexed like the input; failed
// tasks leave a nil entry and an error.
func (r *Recognizer) preprocessAll(
	ctx context.Context,
	viewports []image.Image,
) ([]*image.NRGBA, []error, segment.Stats) {
	n := len(viewports)
	cleaned := make([]*image.NRGBA, n)
	errs := make([]error, n)
	var total segment.Stats

	workers := r.cfg.Workers
	if workers > n {
		workers = n
	}

	if r.cfg.Progress != nil {
		r.cfg.Progress.OnStart(n)
		defer r.cfg.Progress.OnComplete()
	}

	jobs := make(chan preprocessJob, n)
	results := make(chan preprocessResult, n)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go r.worker(ctx, jobs, results, &wg)
	}

	for i, img := range viewports {
		jobs <- preprocessJob{index: i, image: img}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		if res.err != nil {
			errs[res.index] = res.err
			if r.cfg.Progress != nil {
				r.cfg.Progress.OnError(res.index, res.err)
			}
		} else {
			cleaned[res.index] = res.image
			total.Seeds += res.stats.Seeds
			total.Letters += res.stats.Letters
			total.NoiseComponents += res.stats.NoiseComponents
			total.LetterPixels += res.stats.LetterPixels
			total.NoisePixels += res.stats.NoisePixels
		}
		if r.cfg.Progress != nil {
			r.cfg.Progress.OnProgress(done, n)
		}
	}

	return cleaned, errs, total
}

// worker drains jobs until the channel is closed. After cancellation the
// remaining jobs are reported as failed without being run.
func (r *Recognizer) worker(
	ctx context.Context,
	jobs <-chan preprocessJob,
	results chan<- preprocessResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- preprocessResult{index: job.index, err: err}
			continue
		}
		start := time.Now()
		img, st, err := r.runTask(ctx, job.image)
		preprocessDuration.Observe(time.Since(start).Seconds())
		results <- preprocessResult{index: job.index, image: img, stats: st, err: err}
	}
}

// runTask preprocesses one viewport under the per-task timeout. The work runs
// in its own goroutine so an overrunning task is abandoned rather than
// awaited; it observes the cancelled context and its output is discarded.
func (r *Recognizer) runTask(ctx context.Context, img image.Image) (*image.NRGBA, segment.Stats, error) {
	tctx := ctx
	if r.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, r.cfg.TaskTimeout)
		defer cancel()
	}

	done := make(chan preprocessResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Preprocessing panic", "panic", rec)
				done <- preprocessResult{err: fmt.Errorf("%w: panic: %v", segment.ErrDefect, rec)}
			}
		}()
		out, st, err := r.pre.Process(tctx, img)
		done <- preprocessResult{image: out, stats: st, err: err}
	}()

	select {
	case res := <-done:
		return res.image, res.stats, res.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, segment.Stats{}, err
		}
		return nil, segment.Stats{}, fmt.Errorf("%w after %s", ErrTaskTimeout, r.cfg.TaskTimeout)
	}
}
