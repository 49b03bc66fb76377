package hostpage

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/pdf-viewer/pkg/fetcher"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
)

// MetaName is the <meta name> carrying the injected download-assets base URL.
const MetaName = "download-assets-base-url"

// scriptOverride matches DOWNLOAD_ASSETS_BASE_URL assignments in inline
// scripts, e.g. window.__streamlit = {DOWNLOAD_ASSETS_BASE_URL: "https://..."}.
var scriptOverride = regexp.MustCompile(`DOWNLOAD_ASSETS_BASE_URL["'\]]*\s*[:=]\s*["']([^"']*)["']`)

// FromDocument builds the resolution context for a page at pageURL.
func FromDocument(doc *goquery.Document, pageURL string) urlresolver.Context {
	return urlresolver.Context{
		Override: Override(doc),
		PageURL:  pageURL,
	}
}

// FromHTML parses html and builds the resolution context.
func FromHTML(r io.Reader, pageURL string) (urlresolver.Context, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return urlresolver.Context{}, fmt.Errorf("failed to parse host page: %w", err)
	}
	return FromDocument(doc, pageURL), nil
}

// Fetch downloads the host page at pageURL and builds the resolution context.
func Fetch(ctx context.Context, f *fetcher.Fetcher, pageURL string) (urlresolver.Context, error) {
	doc, err := f.GetHtml(ctx, pageURL)
	if err != nil {
		return urlresolver.Context{}, fmt.Errorf("failed to fetch host page: %w", err)
	}
	return FromDocument(doc, pageURL), nil
}

// Override returns the injected base URL, or "" when the page has none.
// A <meta> tag wins over an inline script assignment.
func Override(doc *goquery.Document) string {
	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), MetaName) {
			return true
		}
		content, _ := s.Attr("content")
		found = strings.TrimSpace(content)
		return found == ""
	})
	if found != "" {
		return found
	}

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if src, ok := s.Attr("src"); ok && src != "" {
			return true
		}
		if m := scriptOverride.FindStringSubmatch(s.Text()); m != nil {
			found = strings.TrimSpace(m[1])
		}
		return found == ""
	})
	return found
}
