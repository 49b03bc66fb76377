// Package viewer composes URL resolution, page metrics, virtualization, zoom
// and control visibility into one mounted PDF viewer.
//
// A Viewer reacts to discrete events: a new reference, resize, scroll, zoom
// and pointer activity. Document opens and page renders run on goroutines and
// report back through callbacks tagged with the generation that started them;
// callbacks from a previous reference are dropped.
package viewer

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/dtnitsch/pdf-viewer/models"
	"github.com/dtnitsch/pdf-viewer/pkg/engine"
	"github.com/dtnitsch/pdf-viewer/pkg/errclass"
	"github.com/dtnitsch/pdf-viewer/pkg/pagemetrics"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/dtnitsch/pdf-viewer/pkg/virtualizer"
	"github.com/dtnitsch/pdf-viewer/pkg/visibility"
	"github.com/dtnitsch/pdf-viewer/pkg/zoom"
	"github.com/google/uuid"
)

// LoadRecorder persists the outcome of each document open.
type LoadRecorder interface {
	RecordLoad(reference, url string, pageCount int, loadErr *models.LoadError) error
}

type pageSlot struct {
	status models.PageStatus
	scale  float64 // scale of the in-flight or last finished render
	size   engine.PageSize
}

// Viewer is one mounted viewer instance. Nothing is shared between instances.
type Viewer struct {
	id       string
	engine   engine.Engine
	cfg      *models.Config
	logger   *slog.Logger
	resolve  urlresolver.Context
	zoom     zoom.Controller
	recorder LoadRecorder
	onChange func(models.ViewerState)

	metrics  *pagemetrics.Store
	controls *visibility.Timer
	sem      chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	state  models.ViewerState
	virt   *virtualizer.Virtualizer
	gen    uint64
	doc    engine.Document
	docCtx context.Context
	cancel context.CancelFunc
	pages  map[int]*pageSlot
	closed bool
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithConfig sets layout, zoom and timing parameters.
func WithConfig(cfg *models.Config) Option {
	return func(v *Viewer) { v.cfg = cfg }
}

// WithLogger sets the viewer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Viewer) { v.logger = l }
}

// WithResolveContext sets the base-URL signals used to resolve media references.
func WithResolveContext(ctx urlresolver.Context) Option {
	return func(v *Viewer) { v.resolve = ctx }
}

// WithLoadRecorder records every document open outcome.
func WithLoadRecorder(r LoadRecorder) Option {
	return func(v *Viewer) { v.recorder = r }
}

// WithOnChange is called with a state snapshot after every state change.
// It runs outside the viewer's lock and may be called from any goroutine.
func WithOnChange(fn func(models.ViewerState)) Option {
	return func(v *Viewer) { v.onChange = fn }
}

// New mounts a viewer backed by eng.
func New(eng engine.Engine, opts ...Option) *Viewer {
	v := &Viewer{
		id:     uuid.NewString(),
		engine: eng,
		pages:  make(map[int]*pageSlot),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.cfg == nil {
		v.cfg = models.DefaultConfig()
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	v.logger = v.logger.With("viewer", v.id)

	v.zoom = zoom.FromConfig(v.cfg)
	v.metrics = pagemetrics.NewStore(v.cfg.DefaultPageHeight)
	v.sem = make(chan struct{}, max(v.cfg.MaxConcurrentRenders, 1))
	v.virt = virtualizer.New(virtualizer.Options{
		Estimate: v.metrics.Estimate,
		Scale:    1,
		Overscan: v.cfg.Overscan,
		Margin:   v.cfg.PageMargin,
	})
	v.controls = visibility.New(v.cfg.ControlsTimeout, v.controlsChanged)

	height := v.cfg.DefaultHeight
	if height <= 0 {
		height = models.DefaultHeight
	}
	v.state = models.ViewerState{ZoomFactor: v.zoom.Clamp(1), Height: height}
	v.virt.SetScale(v.state.ZoomFactor)
	return v
}

// ID identifies the viewer in logs.
func (v *Viewer) ID() string { return v.id }

// Update applies host arguments: the reference and the viewport height.
// A non-positive height keeps the current one.
func (v *Viewer) Update(ctx context.Context, args Args) {
	ref := ""
	if args.File != nil {
		ref = *args.File
	}
	if args.Height > 0 {
		v.Resize(args.Height, -1)
	}
	v.SetReference(ctx, ref)
}

// SetReference switches the viewer to a new document reference. Setting the
// current reference again is a no-op; an empty reference empties the viewer.
func (v *Viewer) SetReference(ctx context.Context, reference string) {
	v.mu.Lock()
	if v.closed || reference == v.state.Reference {
		v.mu.Unlock()
		return
	}

	v.resetLocked()
	v.state.Reference = reference
	if reference == "" {
		st := v.snapshotLocked()
		v.mu.Unlock()
		v.controls.Reset()
		v.logger.Info("viewer emptied")
		v.emit(st)
		return
	}

	url := urlresolver.Resolve(reference, v.resolve)
	v.state.URL = url
	v.state.Loading = true

	docCtx, cancel := context.WithCancel(ctx)
	v.docCtx, v.cancel = docCtx, cancel
	gen := v.gen
	v.wg.Add(1)
	st := v.snapshotLocked()
	v.mu.Unlock()
	v.controls.Reset()

	v.logger.Info("loading document", "reference", shortRef(reference), "url", shortRef(url), "generation", gen)
	v.emit(st)
	go v.open(docCtx, gen, reference, url)
}

// resetLocked drops every per-document structure. The caller resets the
// controls timer after releasing the lock.
func (v *Viewer) resetLocked() {
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.docCtx, v.cancel = nil, nil
	}
	v.doc = nil
	v.pages = make(map[int]*pageSlot)
	v.metrics.Reset()
	v.virt.Reset()
	v.state.URL = ""
	v.state.PageCount = 0
	v.state.Loading = false
	v.state.Error = nil
	v.state.ScrollOffset = 0
	v.state.ControlsVisible = false
}

func (v *Viewer) open(ctx context.Context, gen uint64, reference, url string) {
	defer v.wg.Done()

	doc, err := v.engine.OpenDocument(ctx, url)

	v.mu.Lock()
	if gen != v.gen || v.closed {
		v.mu.Unlock()
		v.logger.Debug("dropping stale document load", "generation", gen)
		return
	}

	v.state.Loading = false
	if err != nil {
		le := errclass.Classify(engine.Message(err))
		v.state.Error = &le
		st := v.snapshotLocked()
		v.mu.Unlock()

		v.logger.Error("document load failed", "url", shortRef(url), "summary", le.Summary, "error", err)
		v.record(reference, url, 0, &le)
		v.emit(st)
		return
	}

	v.doc = doc
	v.state.PageCount = doc.PageCount()
	v.state.Error = nil
	v.virt.SetCount(v.state.PageCount)
	v.scheduleLocked(ctx)
	st := v.snapshotLocked()
	v.mu.Unlock()

	v.logger.Info("document ready", "url", shortRef(url), "pages", st.PageCount)
	v.record(reference, url, st.PageCount, nil)
	v.emit(st)
}

// scheduleLocked starts renders for every windowed page that has no render
// at the current scale.
func (v *Viewer) scheduleLocked(ctx context.Context) {
	if v.doc == nil {
		return
	}
	scale := v.state.ZoomFactor
	win := v.virt.Window(v.state.ScrollOffset, v.state.Height)
	for _, it := range win.Items {
		slot := v.pages[it.Index]
		if slot != nil && (slot.status == models.PageRendering || slot.scale == scale) {
			continue
		}
		v.pages[it.Index] = &pageSlot{status: models.PageRendering, scale: scale}
		v.wg.Add(1)
		go v.render(ctx, v.gen, v.doc, it.Index, scale)
	}
}

func (v *Viewer) render(ctx context.Context, gen uint64, doc engine.Document, index int, scale float64) {
	defer v.wg.Done()

	select {
	case v.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	size, err := v.engine.RenderPage(ctx, doc, index+1, scale)
	<-v.sem

	v.mu.Lock()
	if gen != v.gen || v.closed {
		v.mu.Unlock()
		return
	}

	slot := v.pages[index]
	if slot == nil {
		slot = &pageSlot{}
		v.pages[index] = slot
	}
	slot.scale = scale

	if err != nil {
		slot.status = models.PageFailed
		st := v.snapshotLocked()
		v.mu.Unlock()
		v.logger.Warn("page render failed", "page", index+1, "error", err)
		v.emit(st)
		return
	}

	slot.status = models.PageRendered
	slot.size = size
	v.metrics.Record(index, size.Height/scale, size.Width/scale)
	if scale == v.virt.Scale() {
		v.virt.MeasureElement(index, size.Height)
	}
	v.scheduleLocked(ctx)
	st := v.snapshotLocked()
	v.mu.Unlock()

	v.logger.Debug("page rendered", "page", index+1, "width", size.Width, "height", size.Height)
	v.emit(st)
}

// Resize updates the viewport height and container width. A negative value
// leaves that dimension unchanged.
func (v *Viewer) Resize(height, width float64) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	changed := false
	if height >= 0 && !math.IsNaN(height) && height != v.state.Height {
		v.state.Height = height
		changed = true
	}
	if width >= 0 && !math.IsNaN(width) && width != v.state.ContainerWidth {
		v.state.ContainerWidth = width
		changed = true
	}
	if !changed {
		v.mu.Unlock()
		return
	}
	v.state.ScrollOffset = v.clampScrollLocked(v.state.ScrollOffset)
	v.scheduleLocked(v.docContextLocked())
	st := v.snapshotLocked()
	v.mu.Unlock()
	v.emit(st)
}

// Scroll moves the viewport and hides the controls.
func (v *Viewer) Scroll(offset float64) {
	v.controls.Scroll()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	offset = v.clampScrollLocked(offset)
	if offset == v.state.ScrollOffset {
		v.mu.Unlock()
		return
	}
	v.state.ScrollOffset = offset
	v.scheduleLocked(v.docContextLocked())
	st := v.snapshotLocked()
	v.mu.Unlock()
	v.emit(st)
}

// ScrollToPage scrolls so that the 1-based page is at the top.
func (v *Viewer) ScrollToPage(page int) {
	v.mu.Lock()
	offset := v.virt.OffsetOf(page - 1)
	v.mu.Unlock()
	v.Scroll(offset)
}

// ZoomIn steps the zoom factor up; a no-op at the maximum.
func (v *Viewer) ZoomIn() float64 {
	return v.setZoom(v.zoom.ZoomIn)
}

// ZoomOut steps the zoom factor down; a no-op at the minimum.
func (v *Viewer) ZoomOut() float64 {
	return v.setZoom(v.zoom.ZoomOut)
}

// SetZoom sets the zoom factor directly, clamped to the zoom bounds.
func (v *Viewer) SetZoom(scale float64) float64 {
	return v.setZoom(func(float64) float64 { return v.zoom.Clamp(scale) })
}

// setZoom applies the new scale and re-lays out synchronously, keeping the
// page at the top of the viewport anchored so the content does not jump.
func (v *Viewer) setZoom(step func(float64) float64) float64 {
	v.mu.Lock()
	old := v.state.ZoomFactor
	next := step(old)
	if v.closed || next == old {
		v.mu.Unlock()
		return old
	}

	anchor, within := -1, 0.0
	if v.virt.Count() > 0 {
		anchor = v.virt.IndexAt(v.state.ScrollOffset)
		within = v.state.ScrollOffset - v.virt.OffsetOf(anchor)
	}

	v.state.ZoomFactor = next
	v.virt.SetScale(next)
	v.virt.Measure()

	if anchor >= 0 {
		v.state.ScrollOffset = v.clampScrollLocked(v.virt.OffsetOf(anchor) + within*next/old)
	}
	v.scheduleLocked(v.docContextLocked())
	st := v.snapshotLocked()
	v.mu.Unlock()

	v.logger.Debug("zoom changed", "from", old, "to", next)
	v.emit(st)
	return next
}

// PointerEnter shows the controls.
func (v *Viewer) PointerEnter() { v.controls.PointerEnter() }

// PointerMove keeps the controls visible.
func (v *Viewer) PointerMove() { v.controls.PointerMove() }

// PointerLeave hides the controls.
func (v *Viewer) PointerLeave() { v.controls.PointerLeave() }

// HoldControls keeps the controls open while the pointer is over them.
func (v *Viewer) HoldControls(hold bool) { v.controls.HoldControls(hold) }

// ControlsState reports the controls state machine's current state.
func (v *Viewer) ControlsState() visibility.State { return v.controls.State() }

func (v *Viewer) controlsChanged(s visibility.State) {
	v.mu.Lock()
	if v.closed || v.state.ControlsVisible == s.Visible() {
		v.mu.Unlock()
		return
	}
	v.state.ControlsVisible = s.Visible()
	st := v.snapshotLocked()
	v.mu.Unlock()
	v.emit(st)
}

// State returns a snapshot of the viewer state.
func (v *Viewer) State() models.ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Window returns the currently mounted slots.
func (v *Viewer) Window() virtualizer.Window {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return virtualizer.Window{}
	}
	return v.virt.Window(v.state.ScrollOffset, v.state.Height)
}

// PageStatus returns the render state of the 0-based page index.
func (v *Viewer) PageStatus(index int) models.PageStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	if slot, ok := v.pages[index]; ok {
		return slot.status
	}
	return models.PagePending
}

// CurrentPage is the 1-based page at the top of the viewport, 0 without a document.
func (v *Viewer) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return 0
	}
	return v.virt.IndexAt(v.state.ScrollOffset) + 1
}

// Metrics returns the recorded intrinsic page sizes.
func (v *Viewer) Metrics() []models.PageMetrics {
	return v.metrics.Snapshot()
}

// Wait blocks until no document open or page render is in flight.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

// Close unmounts the viewer: pending timers are cancelled, in-flight work is
// cancelled and awaited, and later events are ignored.
func (v *Viewer) Close() {
	v.controls.Close()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.mu.Unlock()

	v.wg.Wait()
	v.logger.Debug("viewer closed")
}

func (v *Viewer) clampScrollLocked(offset float64) float64 {
	limit := math.Max(v.virt.TotalExtent()-v.state.Height, 0)
	if math.IsNaN(offset) {
		return 0
	}
	return math.Min(math.Max(offset, 0), limit)
}

// docContextLocked returns the context renders of the current document run under.
func (v *Viewer) docContextLocked() context.Context {
	if v.docCtx == nil {
		return context.Background()
	}
	return v.docCtx
}

func (v *Viewer) snapshotLocked() models.ViewerState {
	st := v.state
	if st.Error != nil {
		le := *st.Error
		st.Error = &le
	}
	return st
}

func (v *Viewer) emit(st models.ViewerState) {
	if v.onChange != nil {
		v.onChange(st)
	}
}

func (v *Viewer) record(reference, url string, pages int, le *models.LoadError) {
	if v.recorder == nil {
		return
	}
	if err := v.recorder.RecordLoad(reference, url, pages, le); err != nil {
		v.logger.Warn("failed to record document load", "error", err)
	}
}

func shortRef(s string) string {
	if len(s) > 96 {
		return s[:96] + "..."
	}
	return s
}
