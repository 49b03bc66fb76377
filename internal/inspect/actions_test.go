package inspect

import (
	"testing"

	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/stretchr/testify/assert"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		ctx      urlresolver.Context
		want     string
		source   urlresolver.Source
		basePath string
	}{
		{
			name:     "page slug",
			ref:      "/media/a.pdf",
			ctx:      urlresolver.Context{PageURL: "https://host/app/Page_Slug"},
			want:     "https://host/app/media/a.pdf",
			source:   urlresolver.SourcePage,
			basePath: "/app/",
		},
		{
			name:     "override",
			ref:      "//media/a.pdf",
			ctx:      urlresolver.Context{Override: "https://cdn/x/", PageURL: "https://host/app/"},
			want:     "https://cdn/x/media/a.pdf",
			source:   urlresolver.SourceOverride,
			basePath: "/x/",
		},
		{
			name:   "external url untouched",
			ref:    "https://other/doc.pdf",
			ctx:    urlresolver.Context{PageURL: "https://host/app/"},
			want:   "https://other/doc.pdf",
			source: urlresolver.SourcePage,
		},
		{
			name:   "no signal",
			ref:    "/media/a.pdf",
			want:   "/media/a.pdf",
			source: urlresolver.SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Explain(tt.ref, tt.ctx)
			assert.Equal(t, tt.want, e.Resolved)
			assert.Equal(t, tt.source, e.Source)
			assert.Equal(t, tt.basePath, e.BasePath)
		})
	}
}

func TestBasePathOf(t *testing.T) {
	assert.Equal(t, "/app/Page", basePathOf("https://host/app/Page?x=1"))
	assert.Equal(t, "/", basePathOf("https://host"))
	assert.Equal(t, "/proxy/app/", basePathOf("/proxy/app/"))
}
