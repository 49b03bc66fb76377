package view

import (
	"time"

	"github.com/dtnitsch/pdf-viewer/pkg/zoom"
)

func BuildSummary(r Result) ResultSummary {
	summary := ResultSummary{
		Reference: r.Reference,
		URL:       r.State.URL,
		PageCount: r.State.PageCount,
		Zoom:      zoom.Percent(r.State.ZoomFactor),
		Duration:  r.Duration.Round(time.Millisecond).String(),
	}
	if r.Failed() {
		summary.Status = "failed"
		summary.Error = r.State.Error
		return summary
	}

	summary.Status = "success"
	summary.CurrentPage = r.Page
	summary.TotalHeight = r.Window.TotalExtent
	for _, idx := range r.Window.Indices() {
		summary.Window = append(summary.Window, idx+1)
	}
	for _, m := range r.Metrics {
		summary.Pages = append(summary.Pages, PageSummary{Page: m.Index + 1, Width: m.Width, Height: m.Height})
	}
	return summary
}

// BuildStats counts outcomes over results.
func BuildStats(results []Result, elapsed time.Duration) Stats {
	stats := Stats{Total: len(results), TotalTimeSeconds: elapsed.Seconds()}
	for _, r := range results {
		if r.Failed() {
			stats.Failed++
			continue
		}
		stats.Successful++
		stats.TotalPages += r.State.PageCount
	}
	return stats
}
