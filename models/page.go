package models

// PageMetrics is the intrinsic (unscaled) size of a rendered page.
type PageMetrics struct {
	Index  int     `json:"index" yaml:"index"` // 0-based
	Height float64 `json:"height" yaml:"height"`
	Width  float64 `json:"width" yaml:"width"`
}

// PageStatus is the render state of a single page slot.
type PageStatus int

const (
	PagePending PageStatus = iota
	PageRendering
	PageRendered
	// PageFailed shows a placeholder; it never fails the whole viewer.
	PageFailed
)

func (s PageStatus) String() string {
	switch s {
	case PagePending:
		return "pending"
	case PageRendering:
		return "rendering"
	case PageRendered:
		return "rendered"
	case PageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the status by name.
func (s PageStatus) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
