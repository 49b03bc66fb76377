package models

// LoadError is a classified document load failure ready for display.
type LoadError struct {
	Summary string `json:"summary" yaml:"summary"`
	Remedy  string `json:"remedy" yaml:"remedy"`
	Raw     string `json:"raw,omitempty" yaml:"raw,omitempty"` // original engine message
}

// Phase is the coarse lifecycle of a viewer for its current reference.
type Phase string

const (
	PhaseEmpty   Phase = "empty"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// ViewerState is the observable state of one mounted viewer.
//
// Loading implies PageCount == 0 and Error == nil.
// Error != nil implies !Loading.
type ViewerState struct {
	Reference       string     `json:"reference" yaml:"reference"`
	URL             string     `json:"url,omitempty" yaml:"url,omitempty"` // resolved reference
	PageCount       int        `json:"page_count" yaml:"page_count"`
	Loading         bool       `json:"loading" yaml:"loading"`
	ZoomFactor      float64    `json:"zoom_factor" yaml:"zoom_factor"`
	Error           *LoadError `json:"error,omitempty" yaml:"error,omitempty"`
	ControlsVisible bool       `json:"controls_visible" yaml:"controls_visible"`
	ContainerWidth  float64    `json:"container_width" yaml:"container_width"`
	Height          float64    `json:"height" yaml:"height"` // viewport height
	ScrollOffset    float64    `json:"scroll_offset" yaml:"scroll_offset"`
}

// Phase derives the lifecycle phase from the state flags.
func (s ViewerState) Phase() Phase {
	switch {
	case s.Reference == "":
		return PhaseEmpty
	case s.Loading:
		return PhaseLoading
	case s.Error != nil:
		return PhaseFailed
	default:
		return PhaseReady
	}
}
