package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/dtnitsch/pdf-viewer/pkg/engine"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/dtnitsch/pdf-viewer/pkg/viewer"
)

// Plan describes what each viewer does once its document is ready.
type Plan struct {
	Height     float64
	Width      float64
	ZoomSteps  int // positive zooms in, negative zooms out
	ScrollPage int // 1-based; 0 leaves the viewer at the top
}

type runConfig struct {
	workers  int
	cfg      *models.Config
	resolve  urlresolver.Context
	recorder viewer.LoadRecorder
	plan     Plan
}

func run(ctx context.Context, logger *slog.Logger, eng engine.Engine, rc runConfig, refs []string) []Result {
	if rc.workers < 1 {
		rc.workers = 1
	}
	logger.Info("Starting viewers", "reference_count", len(refs), "workers", rc.workers)

	var wg sync.WaitGroup
	jobs := make(chan Job, len(refs))
	results := make(chan Result, len(refs))

	for w := 1; w <= rc.workers; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, eng, rc, &wg, jobs, results)
	}

	for _, ref := range refs {
		jobs <- Job{Reference: ref}
	}
	close(jobs)

	wg.Wait()
	close(results)

	// Keep input order in the output.
	byRef := make(map[string][]Result, len(refs))
	for r := range results {
		byRef[r.Reference] = append(byRef[r.Reference], r)
	}
	ordered := make([]Result, 0, len(refs))
	for _, ref := range refs {
		list := byRef[ref]
		if len(list) == 0 {
			continue
		}
		ordered = append(ordered, list[0])
		byRef[ref] = list[1:]
	}
	return ordered
}

// worker mounts one viewer per job, waits for it to settle and applies the plan.
func worker(ctx context.Context, id int, logger *slog.Logger, eng engine.Engine, rc runConfig, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		logger.Debug("Worker started job", "worker", id, "reference", job.Reference)
		results <- viewOne(ctx, logger, eng, rc, job)
		logger.Debug("Worker finished job", "worker", id, "reference", job.Reference)
	}
}

func viewOne(ctx context.Context, logger *slog.Logger, eng engine.Engine, rc runConfig, job Job) Result {
	start := time.Now()
	opts := []viewer.Option{
		viewer.WithConfig(rc.cfg),
		viewer.WithLogger(logger),
		viewer.WithResolveContext(rc.resolve),
	}
	if rc.recorder != nil {
		opts = append(opts, viewer.WithLoadRecorder(rc.recorder))
	}
	v := viewer.New(eng, opts...)
	defer v.Close()

	ref := job.Reference
	v.Update(ctx, viewer.Args{File: &ref, Height: rc.plan.Height})
	if rc.plan.Width > 0 {
		v.Resize(-1, rc.plan.Width)
	}
	v.Wait()

	if v.State().Error == nil {
		applyPlan(v, rc.plan)
		v.Wait()
	}

	return Result{
		Reference: job.Reference,
		State:     v.State(),
		Window:    v.Window(),
		Page:      v.CurrentPage(),
		Metrics:   v.Metrics(),
		Duration:  time.Since(start),
	}
}

func applyPlan(v *viewer.Viewer, plan Plan) {
	for i := 0; i < plan.ZoomSteps; i++ {
		v.ZoomIn()
	}
	for i := 0; i > plan.ZoomSteps; i-- {
		v.ZoomOut()
	}
	if plan.ScrollPage > 0 {
		v.ScrollToPage(plan.ScrollPage)
	}
}
