package virtualizer

import (
	"math"
	"sort"

	"github.com/dtnitsch/pdf-viewer/models"
)

// Estimator returns the unscaled height estimate of page index.
type Estimator func(index int) float64

// Item is one mounted slot of the window.
type Item struct {
	Index  int     `json:"index" yaml:"index"`
	Offset float64 `json:"offset" yaml:"offset"` // distance from the top of the scroll content
	Extent float64 `json:"extent" yaml:"extent"` // slot height including the margin
}

// Window is the derived set of mounted slots. It is rebuilt on every call and
// never mutated in place.
type Window struct {
	TotalExtent float64 `json:"total_extent" yaml:"total_extent"`
	Items       []Item  `json:"items" yaml:"items"`
}

// Indices returns the mounted page indices in ascending order.
func (w Window) Indices() []int {
	out := make([]int, len(w.Items))
	for i, it := range w.Items {
		out[i] = it.Index
	}
	return out
}

// Options configures a Virtualizer.
type Options struct {
	Count    int
	Estimate Estimator
	Scale    float64
	Overscan int
	Margin   float64
}

// Virtualizer keeps cached slot offsets for one document.
// It is not safe for concurrent use; the owning viewer serialises access.
type Virtualizer struct {
	count    int
	estimate Estimator
	scale    float64
	overscan int
	margin   float64

	measured map[int]float64
	offsets  []float64 // prefix sums, len(count+1); nil when stale
}

// New creates a Virtualizer. Zero Scale means 1; a nil Estimate uses
// models.DefaultPageHeight for every page.
func New(opts Options) *Virtualizer {
	v := &Virtualizer{
		count:    max(opts.Count, 0),
		estimate: opts.Estimate,
		scale:    opts.Scale,
		overscan: max(opts.Overscan, 0),
		margin:   math.Max(opts.Margin, 0),
		measured: make(map[int]float64),
	}
	if v.scale <= 0 {
		v.scale = 1
	}
	return v
}

// ComputeWindow is the stateless form: it lays out pageCount pages from
// estimates alone and returns the window for the given viewport.
func ComputeWindow(pageCount int, scrollOffset, viewportHeight, scaleFactor float64, overscanCount int, estimate Estimator) Window {
	v := New(Options{
		Count:    pageCount,
		Estimate: estimate,
		Scale:    scaleFactor,
		Overscan: overscanCount,
		Margin:   models.DefaultPageMargin,
	})
	return v.Window(scrollOffset, viewportHeight)
}

// Count returns the number of slots.
func (v *Virtualizer) Count() int { return v.count }

// Scale returns the current zoom scale.
func (v *Virtualizer) Scale() float64 { return v.scale }

// SetCount changes the number of slots. Measurements past the new end are dropped.
func (v *Virtualizer) SetCount(n int) {
	n = max(n, 0)
	if n == v.count {
		return
	}
	for idx := range v.measured {
		if idx >= n {
			delete(v.measured, idx)
		}
	}
	v.count = n
	v.offsets = nil
}

// SetScale changes the zoom scale. Callers follow it with Measure so that
// stale on-screen measurements taken at the old scale are discarded.
func (v *Virtualizer) SetScale(scale float64) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	v.scale = scale
	v.offsets = nil
}

// SetEstimator replaces the height estimator and invalidates cached offsets.
func (v *Virtualizer) SetEstimator(e Estimator) {
	v.estimate = e
	v.offsets = nil
}

// MeasureElement records the real on-screen height of a mounted page.
// It reports whether the layout changed.
func (v *Virtualizer) MeasureElement(index int, height float64) bool {
	if index < 0 || index >= v.count || height <= 0 || math.IsNaN(height) || math.IsInf(height, 0) {
		return false
	}
	if prev, ok := v.measured[index]; ok && prev == height {
		return false
	}
	v.measured[index] = height

	// Only the measured slot moves; other slots keep their cached extents
	// until Measure.
	if v.offsets != nil {
		delta := height + v.margin - (v.offsets[index+1] - v.offsets[index])
		for i := index + 1; i <= v.count; i++ {
			v.offsets[i] += delta
		}
	}
	return true
}

// Measure drops every cached extent and measurement and rebuilds the layout
// from current estimates.
func (v *Virtualizer) Measure() {
	v.measured = make(map[int]float64)
	v.offsets = nil
	v.layout()
}

// Reset empties the virtualizer for a new document.
func (v *Virtualizer) Reset() {
	v.count = 0
	v.measured = make(map[int]float64)
	v.offsets = nil
}

// TotalExtent is the height of the full scroll content, visible or not.
func (v *Virtualizer) TotalExtent() float64 {
	if v.count == 0 {
		return 0
	}
	v.layout()
	return v.offsets[v.count]
}

// OffsetOf returns the top of slot index, clamped to the valid range.
func (v *Virtualizer) OffsetOf(index int) float64 {
	if v.count == 0 {
		return 0
	}
	v.layout()
	index = min(max(index, 0), v.count-1)
	return v.offsets[index]
}

// IndexAt returns the slot containing offset.
func (v *Virtualizer) IndexAt(offset float64) int {
	if v.count == 0 {
		return -1
	}
	v.layout()
	idx := sort.Search(v.count, func(i int) bool { return v.offsets[i+1] > offset })
	return min(idx, v.count-1)
}

// Window returns the mounted slots for the viewport [scroll, scroll+height].
func (v *Virtualizer) Window(scrollOffset, viewportHeight float64) Window {
	if v.count == 0 {
		return Window{}
	}
	v.layout()

	total := v.offsets[v.count]
	scrollOffset = math.Min(math.Max(scrollOffset, 0), total)
	viewportHeight = math.Max(viewportHeight, 0)
	bottom := scrollOffset + viewportHeight

	start := v.IndexAt(scrollOffset)
	end := sort.Search(v.count, func(i int) bool { return v.offsets[i] >= bottom }) - 1
	end = max(end, start)

	start = max(start-v.overscan, 0)
	end = min(end+v.overscan, v.count-1)

	items := make([]Item, 0, end-start+1)
	for i := start; i <= end; i++ {
		items = append(items, Item{
			Index:  i,
			Offset: v.offsets[i],
			Extent: v.offsets[i+1] - v.offsets[i],
		})
	}
	return Window{TotalExtent: total, Items: items}
}

func (v *Virtualizer) layout() {
	if v.offsets != nil {
		return
	}
	v.offsets = make([]float64, v.count+1)
	for i := 0; i < v.count; i++ {
		v.offsets[i+1] = v.offsets[i] + v.extent(i)
	}
}

func (v *Virtualizer) extent(index int) float64 {
	if h, ok := v.measured[index]; ok {
		return h + v.margin
	}
	est := models.DefaultPageHeight
	if v.estimate != nil {
		if e := v.estimate(index); e > 0 && !math.IsNaN(e) && !math.IsInf(e, 0) {
			est = e
		}
	}
	return est*v.scale + v.margin
}
