package viewer

import (
	"encoding/json"
	"math"

	"github.com/dtnitsch/pdf-viewer/models"
)

// Args are the inputs the hosting context passes to a mounted viewer.
type Args struct {
	// File is the document reference; nil means no document.
	File *string `json:"file,omitempty" yaml:"file,omitempty"`
	// Height is the viewport height in CSS pixels.
	Height float64 `json:"height" yaml:"height"`
}

// ParseArgs reads host arguments as decoded from JSON. A missing or
// non-numeric height falls back to defaultHeight.
func ParseArgs(raw map[string]any, defaultHeight float64) Args {
	if defaultHeight <= 0 {
		defaultHeight = models.DefaultHeight
	}
	args := Args{Height: defaultHeight}

	if f, ok := raw["file"].(string); ok {
		args.File = &f
	}

	if h, ok := numeric(raw["height"]); ok && h > 0 {
		args.Height = h
	}
	return args
}

func numeric(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
