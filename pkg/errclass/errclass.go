package errclass

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/pdf-viewer/models"
)

// Category is the kind of failure a message was matched to.
type Category string

const (
	CategoryCORS         Category = "cors"
	CategoryInvalidPDF   Category = "invalid_pdf"
	CategoryNetwork      Category = "network"
	CategoryNotFound     Category = "not_found"
	CategoryAccessDenied Category = "access_denied"
	CategoryUnknown      Category = "unknown"
)

type rule struct {
	category   Category
	indicators []string
	summary    string
	remedy     string
}

// rules are checked in order; the first rule with a matching indicator wins.
var rules = []rule{
	{
		category:   CategoryCORS,
		indicators: []string{"cors", "cross-origin", "cross origin"},
		summary:    "Unable to load PDF from external source",
		remedy:     "The server hosting this file does not allow it to be loaded from this page (CORS). Download the file and pass its bytes or a local path instead of the URL.",
	},
	{
		category:   CategoryInvalidPDF,
		indicators: []string{"invalid pdf", "invalidpdf", "corrupt", "malformed", "not a pdf", "bad xref"},
		summary:    "Invalid PDF file",
		remedy:     "The file could not be read as a PDF. It may be corrupted or truncated; regenerate or re-upload it.",
	},
	{
		category:   CategoryNetwork,
		indicators: []string{"network", "fetch", "load"},
		summary:    "Network error",
		remedy:     "The file could not be downloaded. Check your connection and that the server is reachable, then try again.",
	},
	{
		category:   CategoryNotFound,
		indicators: []string{"not found", "404", "missing pdf"},
		summary:    "PDF not found",
		remedy:     "No file exists at this location. Check the path or URL.",
	},
	{
		category:   CategoryAccessDenied,
		indicators: []string{"unauthorized", "forbidden", "access denied", "403", "401"},
		summary:    "Access denied",
		remedy:     "You do not have permission to read this file. Check the server's permissions or credentials.",
	},
}

const genericSummary = "Unable to load PDF"

// Classify maps raw to a display error. It never fails: unmatched messages
// fall through to a generic error that quotes raw verbatim.
func Classify(raw string) models.LoadError {
	le, _ := ClassifyCategory(raw)
	return le
}

// ClassifyCategory is Classify that also reports the matched category.
func ClassifyCategory(raw string) (models.LoadError, Category) {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, ind := range r.indicators {
			if strings.Contains(lower, ind) {
				return models.LoadError{Summary: r.summary, Remedy: r.remedy, Raw: raw}, r.category
			}
		}
	}
	return models.LoadError{
		Summary: genericSummary,
		Remedy:  fmt.Sprintf("The viewer reported: %s", raw),
		Raw:     raw,
	}, CategoryUnknown
}
