package pagemetrics

import (
	"math"
	"sort"
	"sync"

	"github.com/dtnitsch/pdf-viewer/models"
)

// Store is an index-addressed, last-write-wins cache of page sizes.
// Records may arrive in any order, more than once, and from any goroutine.
type Store struct {
	mu            sync.RWMutex
	pages         map[int]models.PageMetrics
	sum           float64
	defaultHeight float64
}

// NewStore creates an empty store. A non-positive defaultHeight selects
// models.DefaultPageHeight.
func NewStore(defaultHeight float64) *Store {
	if defaultHeight <= 0 || !isFinite(defaultHeight) {
		defaultHeight = models.DefaultPageHeight
	}
	return &Store{
		pages:         make(map[int]models.PageMetrics),
		defaultHeight: defaultHeight,
	}
}

// Record stores the size of page index, replacing any earlier record.
// It reports whether the record was accepted; invalid sizes are dropped.
func (s *Store) Record(index int, height, width float64) bool {
	if index < 0 || height <= 0 || width <= 0 || !isFinite(height) || !isFinite(width) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pages[index]; ok {
		s.sum -= prev.Height
	}
	s.pages[index] = models.PageMetrics{Index: index, Height: height, Width: width}
	s.sum += height
	return true
}

// Get returns the recorded size of page index.
func (s *Store) Get(index int) (models.PageMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.pages[index]
	return m, ok
}

// Estimate returns the recorded height of index, or the average height of
// all recorded pages when index has not rendered yet.
func (s *Store) Estimate(index int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.pages[index]; ok {
		return m.Height
	}
	return s.averageLocked()
}

// AverageHeight is the mean recorded height, or the default when empty.
func (s *Store) AverageHeight() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.averageLocked()
}

func (s *Store) averageLocked() float64 {
	if len(s.pages) == 0 {
		return s.defaultHeight
	}
	return s.sum / float64(len(s.pages))
}

// AverageWidth is the mean recorded width, or 0 when empty.
func (s *Store) AverageWidth() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pages) == 0 {
		return 0
	}
	var total float64
	for _, m := range s.pages {
		total += m.Width
	}
	return total / float64(len(s.pages))
}

// Len returns the number of recorded pages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Reset drops every record. Called when the document reference changes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int]models.PageMetrics)
	s.sum = 0
}

// Snapshot returns all records ordered by index.
func (s *Store) Snapshot() []models.PageMetrics {
	s.mu.RLock()
	out := make([]models.PageMetrics, 0, len(s.pages))
	for _, m := range s.pages {
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
