package view

import (
	"time"

	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/dtnitsch/pdf-viewer/pkg/virtualizer"
)

// Job is one reference to open in its own viewer.
type Job struct {
	Reference string
}

// Result holds the outcome of a processed job.
type Result struct {
	Reference string
	State     models.ViewerState
	Window    virtualizer.Window
	Page      int
	Metrics   []models.PageMetrics
	Duration  time.Duration
}

// Failed reports whether the document could not be opened.
func (r Result) Failed() bool { return r.State.Error != nil }

// ResultSummary is the printed form of a Result.
type ResultSummary struct {
	Reference   string            `json:"reference" yaml:"reference"`
	URL         string            `json:"url,omitempty" yaml:"url,omitempty"`
	Status      string            `json:"status" yaml:"status"`
	Error       *models.LoadError `json:"error,omitempty" yaml:"error,omitempty"`
	PageCount   int               `json:"page_count" yaml:"page_count"`
	Zoom        int               `json:"zoom" yaml:"zoom"` // percent
	CurrentPage int               `json:"current_page,omitempty" yaml:"current_page,omitempty"`
	Window      []int             `json:"window,omitempty" yaml:"window,omitempty"`
	TotalHeight float64           `json:"total_height,omitempty" yaml:"total_height,omitempty"`
	Pages       []PageSummary     `json:"pages,omitempty" yaml:"pages,omitempty"`
	Duration    string            `json:"duration" yaml:"duration"`
}

// PageSummary is one measured page.
type PageSummary struct {
	Page   int     `json:"page" yaml:"page"` // 1-based
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ResultSummaryTerse is ResultSummary with short keys.
type ResultSummaryTerse struct {
	Reference string `json:"r" yaml:"r"`
	URL       string `json:"u,omitempty" yaml:"u,omitempty"`
	Status    int    `json:"s" yaml:"s"` // 0 ok, 1 failed
	Error     string `json:"e,omitempty" yaml:"e,omitempty"`
	PageCount int    `json:"pc" yaml:"pc"`
	Zoom      int    `json:"z" yaml:"z"`
	Window    []int  `json:"w,omitempty" yaml:"w,omitempty"`
	Duration  string `json:"d" yaml:"d"`
}

// Stats summarizes a run.
type Stats struct {
	Total            int     `json:"total" yaml:"total"`
	Successful       int     `json:"successful" yaml:"successful"`
	Failed           int     `json:"failed" yaml:"failed"`
	TotalPages       int     `json:"total_pages" yaml:"total_pages"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}

// StatsTerse is Stats with short keys.
type StatsTerse struct {
	Total   int     `json:"t" yaml:"t"`
	Success int     `json:"ok" yaml:"ok"`
	Failed  int     `json:"f" yaml:"f"`
	Pages   int     `json:"p" yaml:"p"`
	Time    float64 `json:"tm" yaml:"tm"`
}

type FinalOutput struct {
	Status  string      `json:"status" yaml:"status"`
	Results interface{} `json:"results" yaml:"results"`
	Stats   interface{} `json:"stats" yaml:"stats"`
}
