package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/dtnitsch/pdf-viewer/pkg/caching"
	"github.com/dtnitsch/pdf-viewer/pkg/fetcher"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// pdfcpu otherwise creates and reads a per-user config dir, which is not
	// safe with concurrent opens.
	pdfapi.DisableConfigDir()
}

// PDFEngine reads page geometry with pdfcpu. It does not rasterize: a page
// "renders" to its MediaBox size in points (1pt = 1 CSS px at scale 1) times
// the requested scale.
type PDFEngine struct {
	fetcher *fetcher.Fetcher
	cache   *caching.Cache
	logger  *slog.Logger
}

// Option configures a PDFEngine.
type Option func(*PDFEngine)

// WithFetcher sets the HTTP fetcher used for http(s) documents.
func WithFetcher(f *fetcher.Fetcher) Option {
	return func(e *PDFEngine) { e.fetcher = f }
}

// WithCache caches downloaded documents on disk.
func WithCache(c *caching.Cache) Option {
	return func(e *PDFEngine) { e.cache = c }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *PDFEngine) { e.logger = l }
}

// NewPDFEngine creates a pdfcpu-backed engine.
func NewPDFEngine(opts ...Option) *PDFEngine {
	e := &PDFEngine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.fetcher == nil {
		e.fetcher = fetcher.NewFetcher()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

type pdfDocument struct {
	url  string
	dims []pdftypes.Dim
}

func (d *pdfDocument) URL() string    { return d.url }
func (d *pdfDocument) PageCount() int { return len(d.dims) }

// OpenDocument loads and validates the document at url.
func (e *PDFEngine) OpenDocument(ctx context.Context, url string) (Document, error) {
	data, err := e.loadBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims, err := pdfapi.PageDims(bytes.NewReader(data), pdfmodel.NewDefaultConfiguration())
	if err != nil {
		return nil, newLoadError("open", url, fmt.Sprintf("Invalid PDF structure: %v", err), err)
	}

	e.logger.Debug("document opened", "url", shorten(url), "pages", len(dims), "bytes", len(data))
	return &pdfDocument{url: url, dims: dims}, nil
}

// RenderPage returns the size of pageNumber at scale.
func (e *PDFEngine) RenderPage(ctx context.Context, doc Document, pageNumber int, scale float64) (PageSize, error) {
	if err := ctx.Err(); err != nil {
		return PageSize{}, err
	}

	d, ok := doc.(*pdfDocument)
	if !ok || d == nil {
		return PageSize{}, newLoadError("render", "", "Invalid PDF structure: document was not opened by this engine.", nil)
	}
	if pageNumber < 1 || pageNumber > len(d.dims) {
		return PageSize{}, newLoadError("render", d.url,
			fmt.Sprintf("Invalid page request: page %d of %d", pageNumber, len(d.dims)), ErrPageRange)
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return PageSize{}, newLoadError("render", d.url, fmt.Sprintf("Invalid render scale %v", scale), nil)
	}

	dim := d.dims[pageNumber-1]
	if dim.Width <= 0 || dim.Height <= 0 {
		return PageSize{}, newLoadError("render", d.url,
			fmt.Sprintf("Invalid PDF structure: page %d has an empty media box", pageNumber), nil)
	}
	return PageSize{Width: dim.Width * scale, Height: dim.Height * scale}, nil
}

// shorten keeps data URIs out of logs.
func shorten(url string) string {
	if len(url) > 96 {
		return url[:96] + "..."
	}
	return url
}
