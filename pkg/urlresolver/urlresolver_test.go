package urlresolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		ctx       Context
		want      string
	}{
		{
			name:      "origin without trailing slash",
			reference: "/media/file.pdf",
			ctx:       Context{Override: "http://localhost:8501"},
			want:      "http://localhost:8501/media/file.pdf",
		},
		{
			name:      "redundant slashes on both sides",
			reference: "///media/file.pdf",
			ctx:       Context{Override: "http://localhost:8501///"},
			want:      "http://localhost:8501/media/file.pdf",
		},
		{
			name:      "page slug is dropped",
			reference: "/media/file.pdf",
			ctx:       Context{PageURL: "https://host/app/Page_Slug"},
			want:      "https://host/app/media/file.pdf",
		},
		{
			name:      "trailing slash keeps full path",
			reference: "/media/file.pdf",
			ctx:       Context{PageURL: "https://host/app/"},
			want:      "https://host/app/media/file.pdf",
		},
		{
			name:      "nested app path with duplicate slashes",
			reference: "/media/abc.pdf",
			ctx:       Context{PageURL: "https://host//team//app//"},
			want:      "https://host/team/app/media/abc.pdf",
		},
		{
			name:      "absolute reference untouched",
			reference: "https://other.example.com/file.pdf",
			ctx:       Context{Override: "http://localhost:8501"},
			want:      "https://other.example.com/file.pdf",
		},
		{
			name:      "data uri untouched",
			reference: "data:application/pdf;base64,JVBERi0=",
			ctx:       Context{PageURL: "http://localhost:8501/"},
			want:      "data:application/pdf;base64,JVBERi0=",
		},
		{
			name:      "non media path keeps its slashes",
			reference: "//static/file.pdf",
			ctx:       Context{PageURL: "http://localhost:8501/"},
			want:      "//static/file.pdf",
		},
		{
			name:      "no base signal",
			reference: "/media/file.pdf",
			ctx:       Context{},
			want:      "/media/file.pdf",
		},
		{
			name:      "query parameter base",
			reference: "/media/file.pdf",
			ctx:       Context{PageURL: "http://component.local/index.html?streamlitUrl=http%3A%2F%2Fapp.local%3A8501%2Fdash%2FPage"},
			want:      "http://app.local:8501/dash/media/file.pdf",
		},
		{
			name:      "override beats query parameter",
			reference: "/media/file.pdf",
			ctx: Context{
				Override: "https://assets.example.com/",
				PageURL:  "http://component.local/?streamlitUrl=http%3A%2F%2Fapp.local%3A8501%2F",
			},
			want: "https://assets.example.com/media/file.pdf",
		},
		{
			name:      "unparseable base falls back to string join",
			reference: "//media/file.pdf",
			ctx:       Context{Override: "not a url//"},
			want:      "not a url/media/file.pdf",
		},
		{
			name:      "relative base falls back to string join",
			reference: "/media/file.pdf",
			ctx:       Context{Override: "/proxy/app/"},
			want:      "/proxy/app/media/file.pdf",
		},
		{
			name:      "empty reference",
			reference: "",
			ctx:       Context{Override: "http://localhost:8501"},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.reference, tt.ctx))
		})
	}
}

func TestResolveRef(t *testing.T) {
	ctx := Context{Override: "http://localhost:8501"}

	require.Nil(t, ResolveRef(nil, ctx))

	ref := "/media/file.pdf"
	got := ResolveRef(&ref, ctx)
	require.NotNil(t, got)
	assert.Equal(t, "http://localhost:8501/media/file.pdf", *got)
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := Context{PageURL: "https://host/app/Page"}
	once := Resolve("/media/file.pdf", ctx)
	assert.Equal(t, once, Resolve(once, ctx))
}

func TestResolveSlashCountDoesNotMatter(t *testing.T) {
	bases := []string{"http://localhost:8501", "https://host/app/"}
	for _, base := range bases {
		want := Resolve("/media/x.pdf", Context{Override: base})
		for extra := 0; extra < 4; extra++ {
			b := base + strings.Repeat("/", extra)
			for lead := 1; lead < 4; lead++ {
				ref := strings.Repeat("/", lead) + "media/x.pdf"
				assert.Equal(t, want, Resolve(ref, Context{Override: b}), "base=%q ref=%q", b, ref)
			}
		}
	}
}

func TestDiscoverBase(t *testing.T) {
	tests := []struct {
		name   string
		ctx    Context
		want   string
		wantOK bool
	}{
		{name: "nothing", ctx: Context{}, wantOK: false},
		{name: "override", ctx: Context{Override: " http://a/ "}, want: "http://a/", wantOK: true},
		{name: "query", ctx: Context{PageURL: "http://c/?streamlitUrl=http://q/"}, want: "http://q/", wantOK: true},
		{name: "page location drops query", ctx: Context{PageURL: "http://c/x/y?a=1#f"}, want: "http://c/x/y", wantOK: true},
		{name: "relative page", ctx: Context{PageURL: "/only/path"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DiscoverBase(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppBasePath(t *testing.T) {
	tests := map[string]string{
		"":              "/",
		"/":             "/",
		"///":           "/",
		"/App/Page":     "/App/",
		"/App/":         "/App/",
		"/Page":         "/",
		"//a//b//Page":  "/a/b/",
		"relative/Page": "/relative/",
	}
	for in, want := range tests {
		assert.Equal(t, want, AppBasePath(in), "path %q", in)
	}
}

func TestDiscoverBaseSource(t *testing.T) {
	tests := []struct {
		ctx  Context
		want Source
	}{
		{Context{}, SourceNone},
		{Context{Override: "http://a/", PageURL: "http://c/?streamlitUrl=http://q/"}, SourceOverride},
		{Context{PageURL: "http://c/?streamlitUrl=http://q/"}, SourceQuery},
		{Context{PageURL: "http://c/app/"}, SourcePage},
		{Context{Override: "   "}, SourceNone},
	}
	for _, tt := range tests {
		_, got := DiscoverBaseSource(tt.ctx)
		assert.Equal(t, tt.want, got, "%+v", tt.ctx)
	}
}

func TestIsMedia(t *testing.T) {
	assert.True(t, IsMedia("/media/a.pdf"))
	assert.True(t, IsMedia("///media/a.pdf"))
	assert.False(t, IsMedia("media/a.pdf"))
	assert.False(t, IsMedia("https://x/media/a.pdf"))
}
