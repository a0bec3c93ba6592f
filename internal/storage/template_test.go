package storage

import (
	"strings"
	"testing"
)

func TestTemplatePattern(t *testing.T) {
	tmpl := NewURLTemplate(Lit("http://cdn.test/serve/"), Tok("bucket"), Lit("/"), Tok("filename"))
	want := "http://cdn.test/serve/{{bucket}}/{{filename}}"
	if got := tmpl.Pattern(); got != want {
		t.Fatalf("pattern = %q, want %q", got, want)
	}
}

func TestTemplateRender(t *testing.T) {
	tmpl := NewURLTemplate(Lit("http://cdn.test/crop/"), Tok("width"), Lit("/"), Tok("height"))
	got := tmpl.Render(map[string]string{"width": "100", "height": "200"})
	if got != "http://cdn.test/crop/100/200" {
		t.Fatalf("render = %q", got)
	}
}

func TestTemplateRenderKeepsMissingTokens(t *testing.T) {
	tmpl := NewURLTemplate(Lit("http://cdn.test/serve/"), Tok("bucket"), Lit("/"), Tok("filename"))
	got := tmpl.Render(map[string]string{"bucket": "avatars"})
	if got != "http://cdn.test/serve/avatars/{{filename}}" {
		t.Fatalf("render = %q", got)
	}
}

func TestTemplateTokens(t *testing.T) {
	tmpl := NewURLTemplate(Lit("/x/"), Tok("a"), Lit("/"), Tok("b"), Lit("/"), Tok("c"))
	got := tmpl.Tokens()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("tokens = %v", got)
	}
}

// Substituting a rendered URL's values back into the scheme pattern must
// reproduce the URL exactly; client-side URL building depends on it.
func TestSchemeRoundTrip(t *testing.T) {
	b := &urlBuilder{base: "http://cdn.test"}

	values := map[string]string{
		"width":    "300",
		"height":   "300",
		"bucket":   "avatars",
		"filename": "abc123.jpg",
	}
	url := b.URLCrop(values["bucket"], values["filename"], 300, 300)
	pattern := b.URLCropScheme().Pattern()

	rebuilt := pattern
	for token, v := range values {
		rebuilt = strings.ReplaceAll(rebuilt, "{{"+token+"}}", v)
	}
	if rebuilt != url {
		t.Fatalf("round trip mismatch: pattern %q gave %q, url method gave %q", pattern, rebuilt, url)
	}
}

func TestSchemeRoundTripAllSchemes(t *testing.T) {
	b := &urlBuilder{base: "http://cdn.test"}
	cases := []struct {
		name    string
		url     string
		pattern string
		values  map[string]string
	}{
		{
			name:    "serve",
			url:     b.URLServe("docs", "f.pdf"),
			pattern: b.URLServeScheme().Pattern(),
			values:  map[string]string{"bucket": "docs", "filename": "f.pdf"},
		},
		{
			name:    "zip",
			url:     b.URLServeZipped("1-2-3", "all.zip"),
			pattern: b.URLServeZippedScheme().Pattern(),
			values:  map[string]string{"ids": "1-2-3", "filename": "all.zip"},
		},
		{
			name:    "scale",
			url:     b.URLScale("imgs", "p.png", 640, 480),
			pattern: b.URLScaleScheme().Pattern(),
			values:  map[string]string{"width": "640", "height": "480", "bucket": "imgs", "filename": "p.png"},
		},
		{
			name:    "placeholder",
			url:     b.URLPlaceholder(100, 100, 2),
			pattern: b.URLPlaceholderScheme().Pattern(),
			values:  map[string]string{"width": "100", "height": "100", "border": "2"},
		},
		{
			name:    "blank avatar",
			url:     b.URLBlankAvatar(150, 150, "neutral"),
			pattern: b.URLBlankAvatarScheme().Pattern(),
			values:  map[string]string{"width": "150", "height": "150", "sex": "neutral"},
		},
	}
	for _, tc := range cases {
		rebuilt := tc.pattern
		for token, v := range tc.values {
			rebuilt = strings.ReplaceAll(rebuilt, "{{"+token+"}}", v)
		}
		if rebuilt != tc.url {
			t.Errorf("%s: pattern %q rebuilt %q, url %q", tc.name, tc.pattern, rebuilt, tc.url)
		}
	}
}
