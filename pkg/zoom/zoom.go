package zoom

import (
	"math"

	"github.com/dtnitsch/pdf-viewer/models"
)

// Controller steps a scale factor within [Min, Max].
type Controller struct {
	Min  float64
	Max  float64
	Step float64
}

// NewController returns a controller with the default bounds and step.
func NewController() Controller {
	return Controller{
		Min:  models.DefaultMinZoom,
		Max:  models.DefaultMaxZoom,
		Step: models.DefaultZoomStep,
	}
}

// FromConfig builds a controller from the viewer configuration.
func FromConfig(cfg *models.Config) Controller {
	if cfg == nil {
		return NewController()
	}
	return Controller{Min: cfg.MinZoom, Max: cfg.MaxZoom, Step: cfg.ZoomStep}
}

// ZoomIn returns current plus one step, never above Max.
// At Max it returns current unchanged.
func (c Controller) ZoomIn(current float64) float64 {
	current = c.Clamp(current)
	if current >= c.Max {
		return current
	}
	return c.Clamp(round(current + c.Step))
}

// ZoomOut returns current minus one step, never below Min.
// At Min it returns current unchanged.
func (c Controller) ZoomOut(current float64) float64 {
	current = c.Clamp(current)
	if current <= c.Min {
		return current
	}
	return c.Clamp(round(current - c.Step))
}

// Clamp limits scale to [Min, Max]. NaN maps to 1 clamped.
func (c Controller) Clamp(scale float64) float64 {
	if math.IsNaN(scale) {
		scale = 1
	}
	return math.Min(math.Max(scale, c.Min), c.Max)
}

// CanZoomIn reports whether ZoomIn would change current.
func (c Controller) CanZoomIn(current float64) bool { return c.Clamp(current) < c.Max }

// CanZoomOut reports whether ZoomOut would change current.
func (c Controller) CanZoomOut(current float64) bool { return c.Clamp(current) > c.Min }

// Percent formats scale as a whole percentage, as shown next to the zoom buttons.
func Percent(scale float64) int {
	return int(math.Round(scale * 100))
}

// round drops float noise accumulated by repeated stepping.
func round(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
