package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/dtnitsch/pdf-viewer/pkg/engine"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/dtnitsch/pdf-viewer/pkg/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	url   string
	pages int
}

func (d *fakeDoc) URL() string    { return d.url }
func (d *fakeDoc) PageCount() int { return d.pages }

// fakeEngine serves documents from a table keyed by URL. A URL listed in
// gates blocks OpenDocument until its channel is closed.
type fakeEngine struct {
	mu       sync.Mutex
	docs     map[string]int
	failures map[string]error
	gates    map[string]chan struct{}
	badPages map[int]bool
	opened   []string
	renders  int
	pageSize engine.PageSize
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		docs:     make(map[string]int),
		failures: make(map[string]error),
		gates:    make(map[string]chan struct{}),
		badPages: make(map[int]bool),
		pageSize: engine.PageSize{Width: 600, Height: 800},
	}
}

func (f *fakeEngine) OpenDocument(ctx context.Context, url string) (engine.Document, error) {
	f.mu.Lock()
	f.opened = append(f.opened, url)
	gate := f.gates[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	n, ok := f.docs[url]
	if !ok {
		return nil, fmt.Errorf("Missing PDF %q: file not found.", url)
	}
	return &fakeDoc{url: url, pages: n}, nil
}

func (f *fakeEngine) RenderPage(_ context.Context, doc engine.Document, page int, scale float64) (engine.PageSize, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders++
	if page < 1 || page > doc.PageCount() {
		return engine.PageSize{}, engine.ErrPageRange
	}
	if f.badPages[page] {
		return engine.PageSize{}, errors.New("render failed")
	}
	return engine.PageSize{Width: f.pageSize.Width * scale, Height: f.pageSize.Height * scale}, nil
}

type recordedLoad struct {
	reference string
	pages     int
	err       *models.LoadError
}

type fakeRecorder struct {
	mu    sync.Mutex
	loads []recordedLoad
}

func (r *fakeRecorder) RecordLoad(reference, _ string, pages int, le *models.LoadError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, recordedLoad{reference, pages, le})
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestViewer(t *testing.T, eng engine.Engine, opts ...Option) *Viewer {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	v := New(eng, opts...)
	t.Cleanup(v.Close)
	return v
}

func TestInitialState(t *testing.T) {
	v := newTestViewer(t, newFakeEngine())
	st := v.State()
	assert.Equal(t, models.PhaseEmpty, st.Phase())
	assert.Equal(t, 1.0, st.ZoomFactor)
	assert.Equal(t, models.DefaultHeight, st.Height)
	assert.False(t, st.ControlsVisible)
	assert.Empty(t, v.Window().Items)
	assert.Equal(t, 0, v.CurrentPage())
	assert.NotEmpty(t, v.ID())
}

func TestLoadSuccess(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["https://example.com/a.pdf"] = 20
	rec := &fakeRecorder{}

	var mu sync.Mutex
	var states []models.ViewerState
	v := newTestViewer(t, eng, WithLoadRecorder(rec), WithOnChange(func(st models.ViewerState) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	}))

	v.SetReference(context.Background(), "https://example.com/a.pdf")
	v.Wait()

	st := v.State()
	assert.Equal(t, models.PhaseReady, st.Phase())
	assert.Equal(t, 20, st.PageCount)
	assert.Nil(t, st.Error)

	mu.Lock()
	require.NotEmpty(t, states)
	assert.True(t, states[0].Loading)
	assert.Equal(t, 0, states[0].PageCount)
	for _, s := range states {
		if s.Loading {
			assert.Equal(t, 0, s.PageCount)
			assert.Nil(t, s.Error)
		}
	}
	mu.Unlock()

	win := v.Window()
	require.NotEmpty(t, win.Items)
	assert.Equal(t, 0, win.Items[0].Index)
	assert.Less(t, win.Items[len(win.Items)-1].Index, 20)
	assert.Equal(t, models.PageRendered, v.PageStatus(0))
	assert.Equal(t, models.PagePending, v.PageStatus(19))

	require.Len(t, rec.loads, 1)
	assert.Equal(t, 20, rec.loads[0].pages)
	assert.Nil(t, rec.loads[0].err)
}

func TestLoadFailureIsClassified(t *testing.T) {
	eng := newFakeEngine()
	eng.failures["https://example.com/bad.pdf"] = errors.New("Invalid PDF structure: bad xref")
	rec := &fakeRecorder{}
	v := newTestViewer(t, eng, WithLoadRecorder(rec))

	v.SetReference(context.Background(), "https://example.com/bad.pdf")
	v.Wait()

	st := v.State()
	assert.Equal(t, models.PhaseFailed, st.Phase())
	assert.False(t, st.Loading)
	assert.Equal(t, 0, st.PageCount)
	require.NotNil(t, st.Error)
	assert.Equal(t, "Invalid PDF structure: bad xref", st.Error.Raw)
	assert.NotContains(t, st.Error.Summary, "Unable to load PDF")

	require.Len(t, rec.loads, 1)
	require.NotNil(t, rec.loads[0].err)
}

func TestMediaReferenceResolved(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["https://host.example/app/media/abc.pdf"] = 1
	v := newTestViewer(t, eng, WithResolveContext(urlresolver.Context{
		PageURL: "https://host.example/app/",
	}))

	v.SetReference(context.Background(), "/media/abc.pdf")
	v.Wait()

	st := v.State()
	assert.Equal(t, "https://host.example/app/media/abc.pdf", st.URL)
	assert.Equal(t, models.PhaseReady, st.Phase())
}

func TestSameReferenceIsNoop(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 3
	v := newTestViewer(t, eng)

	v.SetReference(context.Background(), "a.pdf")
	v.Wait()
	v.SetReference(context.Background(), "a.pdf")
	v.Wait()

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Equal(t, []string{"a.pdf"}, eng.opened)
}

func TestStaleLoadIsDropped(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["slow.pdf"] = 50
	eng.docs["fast.pdf"] = 2
	gate := make(chan struct{})
	eng.gates["slow.pdf"] = gate
	v := newTestViewer(t, eng)

	v.SetReference(context.Background(), "slow.pdf")
	v.SetReference(context.Background(), "fast.pdf")

	require.Eventually(t, func() bool {
		return v.State().Phase() == models.PhaseReady
	}, time.Second, 5*time.Millisecond)
	close(gate)
	v.Wait()

	st := v.State()
	assert.Equal(t, "fast.pdf", st.Reference)
	assert.Equal(t, 2, st.PageCount)
}

func TestEmptyReferenceClears(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 4
	eng.failures["bad.pdf"] = errors.New("corrupt")
	v := newTestViewer(t, eng)

	v.SetReference(context.Background(), "bad.pdf")
	v.Wait()
	require.NotNil(t, v.State().Error)

	v.SetReference(context.Background(), "a.pdf")
	v.Wait()
	assert.Nil(t, v.State().Error)
	assert.Equal(t, 4, v.State().PageCount)

	v.SetReference(context.Background(), "")
	v.Wait()
	st := v.State()
	assert.Equal(t, models.PhaseEmpty, st.Phase())
	assert.Equal(t, 0, st.PageCount)
	assert.Empty(t, v.Window().Items)
	assert.Empty(t, v.Metrics())
}

func TestPageFailureDoesNotFailViewer(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 3
	eng.badPages[2] = true
	v := newTestViewer(t, eng)

	v.SetReference(context.Background(), "a.pdf")
	v.Wait()

	assert.Equal(t, models.PhaseReady, v.State().Phase())
	assert.Equal(t, models.PageFailed, v.PageStatus(1))
	assert.Equal(t, models.PageRendered, v.PageStatus(0))
	assert.Equal(t, models.PageRendered, v.PageStatus(2))
}

func TestPageFailureIsEmitted(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 1
	eng.badPages[1] = true

	var mu sync.Mutex
	var states []models.ViewerState
	v := newTestViewer(t, eng, WithOnChange(func(st models.ViewerState) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	}))

	v.SetReference(context.Background(), "a.pdf")
	v.Wait()
	require.Equal(t, models.PageFailed, v.PageStatus(0))

	mu.Lock()
	defer mu.Unlock()
	// loading, then ready and the failed page in either order
	require.Len(t, states, 3)
	assert.True(t, states[0].Loading)
	assert.Equal(t, models.PhaseReady, states[1].Phase())
	assert.Equal(t, models.PhaseReady, states[2].Phase())
}

func TestZoomBounds(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 10
	v := newTestViewer(t, eng)
	v.SetReference(context.Background(), "a.pdf")
	v.Wait()

	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	assert.Equal(t, models.DefaultMaxZoom, v.State().ZoomFactor)
	assert.Equal(t, models.DefaultMaxZoom, v.ZoomIn())

	for i := 0; i < 20; i++ {
		v.ZoomOut()
	}
	assert.Equal(t, models.DefaultMinZoom, v.State().ZoomFactor)
	assert.Equal(t, models.DefaultMinZoom, v.ZoomOut())

	assert.Equal(t, 1.5, v.SetZoom(1.5))
	assert.Equal(t, models.DefaultMaxZoom, v.SetZoom(99))
	v.Wait()
}

func TestZoomRerendersAtNewScale(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 5
	v := newTestViewer(t, eng)
	v.SetReference(context.Background(), "a.pdf")
	v.Wait()

	page0 := v.Window().Items[0].Extent
	v.ZoomIn()
	v.Wait()

	win := v.Window()
	require.NotEmpty(t, win.Items)
	assert.InDelta(t, 800*1.25+models.DefaultPageMargin, win.Items[0].Extent, 1e-6)
	assert.Greater(t, win.Items[0].Extent, page0)

	m := v.Metrics()
	require.NotEmpty(t, m)
	assert.InDelta(t, 800, m[0].Height, 1e-6)
}

func TestZoomKeepsTopPageAnchored(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 30
	v := newTestViewer(t, eng)
	v.SetReference(context.Background(), "a.pdf")
	v.Wait()

	v.ScrollToPage(6)
	v.Wait()
	require.Equal(t, 6, v.CurrentPage())

	v.ZoomIn()
	v.Wait()
	assert.Equal(t, 6, v.CurrentPage())
	v.ZoomOut()
	v.ZoomOut()
	v.Wait()
	assert.Equal(t, 6, v.CurrentPage())
}

func TestWindowStaysInRange(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 7
	v := newTestViewer(t, eng)
	v.SetReference(context.Background(), "a.pdf")
	v.Wait()

	for _, offset := range []float64{-500, 0, 1234, 5000, 1e9} {
		v.Scroll(offset)
		v.Wait()
		st := v.State()
		assert.GreaterOrEqual(t, st.ScrollOffset, 0.0)
		for _, it := range v.Window().Items {
			assert.GreaterOrEqual(t, it.Index, 0)
			assert.Less(t, it.Index, 7)
		}
	}
	assert.Equal(t, 7, v.CurrentPage())
}

func TestUpdateAppliesArgs(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 2
	v := newTestViewer(t, eng)

	ref := "a.pdf"
	v.Update(context.Background(), Args{File: &ref, Height: 900})
	v.Wait()
	st := v.State()
	assert.Equal(t, 900.0, st.Height)
	assert.Equal(t, 2, st.PageCount)

	v.Update(context.Background(), Args{Height: 900})
	v.Wait()
	assert.Equal(t, models.PhaseEmpty, v.State().Phase())

	v.Resize(-1, 720)
	assert.Equal(t, 720.0, v.State().ContainerWidth)
	assert.Equal(t, 900.0, v.State().Height)
}

func TestControlsVisibility(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.ControlsTimeout = 50 * time.Millisecond
	v := newTestViewer(t, newFakeEngine(), WithConfig(cfg))

	v.PointerEnter()
	require.Eventually(t, func() bool { return v.State().ControlsVisible }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !v.State().ControlsVisible }, time.Second, time.Millisecond)

	v.PointerEnter()
	v.HoldControls(true)
	time.Sleep(150 * time.Millisecond)
	assert.True(t, v.State().ControlsVisible)
	assert.Equal(t, visibility.VisibleActive, v.ControlsState())

	v.HoldControls(false)
	require.Eventually(t, func() bool { return !v.State().ControlsVisible }, time.Second, time.Millisecond)

	v.PointerEnter()
	v.Scroll(10)
	require.Eventually(t, func() bool { return !v.State().ControlsVisible }, time.Second, time.Millisecond)
}

func TestReferenceChangeHidesControls(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["a.pdf"] = 3
	eng.docs["b.pdf"] = 3
	cfg := models.DefaultConfig()
	cfg.ControlsTimeout = time.Hour
	v := newTestViewer(t, eng, WithConfig(cfg))

	v.SetReference(context.Background(), "a.pdf")
	v.Wait()
	v.PointerEnter()
	require.True(t, v.State().ControlsVisible)

	v.SetReference(context.Background(), "b.pdf")
	v.Wait()
	assert.False(t, v.State().ControlsVisible)
	assert.Equal(t, visibility.Hidden, v.ControlsState())

	v.PointerEnter()
	v.HoldControls(true)
	v.SetReference(context.Background(), "")
	assert.False(t, v.State().ControlsVisible)
	assert.Equal(t, visibility.Hidden, v.ControlsState(), "emptying releases a hold")
}

func TestCloseStopsWork(t *testing.T) {
	eng := newFakeEngine()
	eng.docs["slow.pdf"] = 3
	eng.gates["slow.pdf"] = make(chan struct{})
	v := New(eng, WithLogger(quietLogger()))

	v.SetReference(context.Background(), "slow.pdf")
	v.Close()

	st := v.State()
	assert.True(t, st.Loading)
	assert.Equal(t, 0, st.PageCount)

	v.SetReference(context.Background(), "other.pdf")
	v.Close()
	assert.Equal(t, "slow.pdf", v.State().Reference)
}
