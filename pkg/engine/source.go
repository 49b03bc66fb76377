package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/dtnitsch/pdf-viewer/pkg/fetcher"
)

const dataURIPrefix = "data:"

// loadBytes reads the raw document behind ref: a data URI, an http(s) URL,
// a file:// URL or a local path.
func (e *PDFEngine) loadBytes(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, dataURIPrefix):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return e.download(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, newLoadError("open", ref, fmt.Sprintf("Failed to load PDF: bad file URL: %v", err), err)
		}
		return readLocal(ref, u.Path)
	default:
		return readLocal(ref, ref)
	}
}

func (e *PDFEngine) download(ctx context.Context, ref string) ([]byte, error) {
	if data, ok := e.cache.Get(ref); ok {
		e.logger.Debug("document cache hit", "url", ref, "bytes", len(data))
		return data, nil
	}

	data, err := e.fetcher.GetBytes(ctx, ref)
	if err != nil {
		var se *fetcher.StatusError
		if errors.As(err, &se) {
			return nil, newLoadError("open", ref,
				fmt.Sprintf("Unexpected server response (%d) while retrieving PDF.", se.StatusCode), err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, newLoadError("open", ref, fmt.Sprintf("NetworkError: failed to fetch %s: %v", ref, err), err)
	}

	if err := e.cache.Set(ref, data); err != nil {
		e.logger.Warn("failed to cache document", "url", ref, "error", err)
	}
	return data, nil
}

func readLocal(ref, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, newLoadError("open", ref, fmt.Sprintf("Missing PDF %q: file not found.", path), err)
	}
	if errors.Is(err, os.ErrPermission) {
		return nil, newLoadError("open", ref, fmt.Sprintf("Access denied reading %q.", path), err)
	}
	if err != nil {
		return nil, newLoadError("open", ref, fmt.Sprintf("Failed to load PDF %q: %v", path, err), err)
	}
	return data, nil
}

// decodeDataURI accepts data:[<mediatype>][;base64],<data>.
func decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(ref[len(dataURIPrefix):], ",")
	if !ok {
		return nil, newLoadError("open", "data:", "Invalid PDF structure: data URI has no payload.", nil)
	}

	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, newLoadError("open", "data:", fmt.Sprintf("Invalid PDF structure: bad base64 payload: %v", err), err)
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, newLoadError("open", "data:", fmt.Sprintf("Invalid PDF structure: bad data URI payload: %v", err), err)
	}
	return []byte(data), nil
}
