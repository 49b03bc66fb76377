package virtualizer

import (
	"testing"

	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(h float64) Estimator {
	return func(int) float64 { return h }
}

func assertWellFormed(t *testing.T, w Window, count int) {
	t.Helper()
	for i, it := range w.Items {
		require.GreaterOrEqual(t, it.Index, 0)
		require.Less(t, it.Index, count)
		if i > 0 {
			prev := w.Items[i-1]
			require.Equal(t, prev.Index+1, it.Index, "items must be contiguous")
			require.InDelta(t, prev.Offset+prev.Extent, it.Offset, 1e-9)
		}
	}
}

func TestComputeWindowEmpty(t *testing.T) {
	w := ComputeWindow(0, 0, 600, 1, 2, constant(100))
	assert.Empty(t, w.Items)
	assert.Equal(t, 0.0, w.TotalExtent)
}

func TestComputeWindowTotalCoversAllPages(t *testing.T) {
	est := func(i int) float64 { return float64(100 + i) }
	w := ComputeWindow(20, 0, 300, 1.5, 1, est)

	var want float64
	for i := 0; i < 20; i++ {
		want += est(i)*1.5 + models.DefaultPageMargin
	}
	assert.InDelta(t, want, w.TotalExtent, 1e-9)
	assert.Less(t, len(w.Items), 20)
	assertWellFormed(t, w, 20)
}

func TestWindowVisibleRangeWithOverscan(t *testing.T) {
	// slots are exactly 100 tall
	v := New(Options{Count: 50, Estimate: constant(90), Scale: 1, Overscan: 2, Margin: 10})

	tests := []struct {
		name     string
		scroll   float64
		viewport float64
		want     []int
	}{
		{"top", 0, 250, []int{0, 1, 2, 3, 4}},
		{"middle", 1000, 250, []int{8, 9, 10, 11, 12, 13, 14}},
		{"boundary is exclusive", 1000, 200, []int{8, 9, 10, 11, 12, 13}},
		{"bottom clamps", 4900, 250, []int{47, 48, 49}},
		{"past the end", 99999, 250, []int{47, 48, 49}},
		{"negative scroll", -500, 100, []int{0, 1, 2}},
		{"zero viewport", 550, 0, []int{3, 4, 5, 6, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := v.Window(tt.scroll, tt.viewport)
			assert.Equal(t, tt.want, w.Indices())
			assert.InDelta(t, 5000.0, w.TotalExtent, 1e-9)
			assertWellFormed(t, w, 50)
		})
	}
}

func TestWindowOffsetsAreCumulative(t *testing.T) {
	est := func(i int) float64 { return float64(10 * (i + 1)) }
	v := New(Options{Count: 6, Estimate: est, Scale: 2, Margin: 5})
	w := v.Window(0, 1e6)
	require.Len(t, w.Items, 6)

	var offset float64
	for i, it := range w.Items {
		assert.InDelta(t, offset, it.Offset, 1e-9)
		assert.InDelta(t, est(i)*2+5, it.Extent, 1e-9)
		offset += it.Extent
	}
	assert.InDelta(t, offset, w.TotalExtent, 1e-9)
}

func TestMeasureElementIsAuthoritative(t *testing.T) {
	v := New(Options{Count: 4, Estimate: constant(100), Scale: 1, Margin: 10})
	require.InDelta(t, 440.0, v.TotalExtent(), 1e-9)

	require.True(t, v.MeasureElement(1, 300))
	assert.False(t, v.MeasureElement(1, 300), "same height is not a change")
	assert.InDelta(t, 640.0, v.TotalExtent(), 1e-9)
	assert.InDelta(t, 420.0, v.OffsetOf(2), 1e-9)

	assert.False(t, v.MeasureElement(4, 50), "out of range")
	assert.False(t, v.MeasureElement(0, 0), "non-positive height")

	v.Measure()
	assert.InDelta(t, 440.0, v.TotalExtent(), 1e-9, "Measure drops measurements")
}

func TestSetScaleThenMeasure(t *testing.T) {
	v := New(Options{Count: 10, Estimate: constant(100), Scale: 1, Margin: 0})
	v.MeasureElement(0, 100)

	v.SetScale(2)
	v.Measure()
	assert.InDelta(t, 2000.0, v.TotalExtent(), 1e-9)
	assert.Equal(t, 2.0, v.Scale())

	v.SetScale(0)
	assert.Equal(t, 2.0, v.Scale(), "invalid scale ignored")
}

func TestSetCountDropsStaleMeasurements(t *testing.T) {
	v := New(Options{Count: 5, Estimate: constant(100), Margin: 0})
	v.MeasureElement(4, 500)
	v.SetCount(3)
	assert.InDelta(t, 300.0, v.TotalExtent(), 1e-9)

	v.SetCount(5)
	assert.InDelta(t, 500.0, v.TotalExtent(), 1e-9)

	v.Reset()
	assert.Equal(t, 0, v.Count())
	assert.Empty(t, v.Window(0, 100).Items)
	assert.Equal(t, -1, v.IndexAt(0))
}

func TestEstimatorChangesApplyAfterInvalidate(t *testing.T) {
	heights := map[int]float64{}
	est := func(i int) float64 {
		if h, ok := heights[i]; ok {
			return h
		}
		return 100
	}
	v := New(Options{Count: 3, Estimate: est, Margin: 0})
	assert.InDelta(t, 300.0, v.TotalExtent(), 1e-9)

	heights[0] = 400
	assert.InDelta(t, 300.0, v.TotalExtent(), 1e-9, "cached until invalidated")
	v.SetEstimator(est)
	assert.InDelta(t, 600.0, v.TotalExtent(), 1e-9)
}

func TestOutOfOrderMeasurementKeepsExtentsConsistent(t *testing.T) {
	est := 800.0
	v := New(Options{Count: 10, Estimate: func(int) float64 { return est }, Margin: 10})
	require.InDelta(t, 8100.0, v.TotalExtent(), 1e-9)

	// the estimate drops after a later page renders, before anything is re-laid out
	est = 400
	require.True(t, v.MeasureElement(5, 400))

	w := v.Window(0, 1e9)
	require.Len(t, w.Items, 10)
	assertWellFormed(t, w, 10)
	sum := 0.0
	for _, it := range w.Items {
		sum += it.Extent
		if it.Index != 5 {
			assert.InDelta(t, 810.0, it.Extent, 1e-9, "page %d keeps its cached extent", it.Index)
		}
	}
	assert.InDelta(t, 410.0, w.Items[5].Extent, 1e-9)
	assert.InDelta(t, sum, v.TotalExtent(), 1e-9)
	assert.InDelta(t, 7700.0, v.TotalExtent(), 1e-9)

	v.Measure()
	assert.InDelta(t, 4100.0, v.TotalExtent(), 1e-9, "Measure picks up the new estimate")
}

func TestNilEstimatorUsesDefault(t *testing.T) {
	v := New(Options{Count: 2})
	assert.InDelta(t, 2*models.DefaultPageHeight, v.TotalExtent(), 1e-9)
}
