// Package engine is the boundary with the PDF render engine: open a document
// to learn its page count, then render pages at a scale to learn their pixel
// size. Failures are reported as messages that the viewer classifies for
// display.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrPageRange is returned when a page number is outside [1, PageCount].
var ErrPageRange = errors.New("page out of range")

// Document is an opened PDF.
type Document interface {
	URL() string
	PageCount() int
}

// PageSize is the rendered size of a page in CSS pixels.
type PageSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Engine opens documents and renders pages. Implementations must be safe to
// call from multiple goroutines; pages of the same document may render
// concurrently and complete in any order.
type Engine interface {
	OpenDocument(ctx context.Context, url string) (Document, error)
	// RenderPage renders the 1-based pageNumber of doc at scale.
	RenderPage(ctx context.Context, doc Document, pageNumber int, scale float64) (PageSize, error)
}

// LoadError is a document or page failure. Message is the human-readable text
// the error classifier matches against.
type LoadError struct {
	Op      string // "open" or "render"
	URL     string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("engine.%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("engine.%s %s: unknown error", e.Op, e.URL)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(op, url, message string, err error) *LoadError {
	return &LoadError{Op: op, URL: url, Message: message, Err: err}
}

// Message extracts the text to classify from any engine error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var le *LoadError
	if errors.As(err, &le) && le.Message != "" {
		return le.Message
	}
	return err.Error()
}
