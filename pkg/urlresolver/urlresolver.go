// Package urlresolver anchors host-relative media references to the base URL
// the viewer is actually being served from.
//
// Media references look like "/media/<id>.pdf" and are relative to the app
// server, not to the frame that renders the viewer. The base is discovered on
// every call from, in order: an override injected by the hosting context, the
// streamlitUrl query parameter of the current page, and the current page's own
// origin and path.
package urlresolver

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// MediaPrefix marks references served by the app's media endpoint.
	MediaPrefix = "/media/"

	// BaseQueryParam carries the app URL when the viewer runs in a legacy embed.
	BaseQueryParam = "streamlitUrl"
)

var (
	leadingSlashes   = regexp.MustCompile(`^/+`)
	duplicateSlashes = regexp.MustCompile(`/{2,}`)
)

// Context holds the base signals available at resolution time.
// It is passed explicitly so resolution stays a pure function.
type Context struct {
	// Override is the injected download-assets base URL, if any.
	Override string
	// PageURL is the full location of the page hosting the viewer.
	PageURL string
}

// Resolve returns the URL the render engine should load for reference.
// References that are not media paths are returned byte-for-byte unchanged.
func Resolve(reference string, ctx Context) string {
	if reference == "" {
		return reference
	}

	normalized := leadingSlashes.ReplaceAllString(reference, "/")
	if !strings.HasPrefix(normalized, MediaPrefix) {
		return reference
	}

	base, ok := DiscoverBase(ctx)
	if !ok {
		return reference
	}

	mediaPath := strings.TrimLeft(normalized, "/")

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(base, "/") + "/" + mediaPath
	}

	return u.Scheme + "://" + u.Host + AppBasePath(u.Path) + mediaPath
}

// ResolveRef is Resolve for an optional reference: nil stays nil.
func ResolveRef(reference *string, ctx Context) *string {
	if reference == nil {
		return nil
	}
	resolved := Resolve(*reference, ctx)
	return &resolved
}

// Source names which signal supplied the base URL.
type Source string

const (
	SourceNone     Source = "none"
	SourceOverride Source = "override"
	SourceQuery    Source = "query"
	SourcePage     Source = "page"
)

// DiscoverBase returns the highest-priority base signal present in ctx.
func DiscoverBase(ctx Context) (string, bool) {
	base, src := DiscoverBaseSource(ctx)
	return base, src != SourceNone
}

// DiscoverBaseSource is DiscoverBase that also reports where the base came from.
func DiscoverBaseSource(ctx Context) (string, Source) {
	if override := strings.TrimSpace(ctx.Override); override != "" {
		return override, SourceOverride
	}

	if ctx.PageURL == "" {
		return "", SourceNone
	}
	page, err := url.Parse(ctx.PageURL)
	if err != nil {
		return "", SourceNone
	}

	if fromQuery := strings.TrimSpace(page.Query().Get(BaseQueryParam)); fromQuery != "" {
		return fromQuery, SourceQuery
	}

	if page.Scheme == "" || page.Host == "" {
		return "", SourceNone
	}
	return page.Scheme + "://" + page.Host + page.Path, SourcePage
}

// IsMedia reports whether reference is a host-relative media path.
func IsMedia(reference string) bool {
	return strings.HasPrefix(leadingSlashes.ReplaceAllString(reference, "/"), MediaPrefix)
}

// AppBasePath derives the app's base path from the path of a base signal.
// A trailing segment without a slash is a page route and is dropped, so
// "/app/Page_Slug" becomes "/app/". The result always starts with a slash and
// ends with one.
func AppBasePath(path string) string {
	base := path
	if !strings.HasSuffix(base, "/") {
		idx := strings.LastIndex(base, "/")
		if idx < 0 {
			base = "/"
		} else {
			base = base[:idx+1]
		}
	}

	base = duplicateSlashes.ReplaceAllString(base, "/")
	base = "/" + strings.Trim(base, "/")
	if base != "/" {
		base += "/"
	}
	return base
}
