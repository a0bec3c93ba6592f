package storage

import "strings"

// Segment is one piece of a URL template: either a literal or a named
// placeholder.
type Segment struct {
	Literal string
	Token   string
}

// Lit returns a literal segment.
func Lit(s string) Segment {
	return Segment{Literal: s}
}

// Tok returns a placeholder segment.
func Tok(name string) Segment {
	return Segment{Token: name}
}

// URLTemplate is an ordered list of literal/placeholder segments. Rendering
// a template with real values reproduces the URL the placeholder pattern
// describes byte-for-byte, which is what client-side URL construction
// relies on.
type URLTemplate struct {
	segments []Segment
}

// NewURLTemplate builds a template from segments.
func NewURLTemplate(segments ...Segment) *URLTemplate {
	return &URLTemplate{segments: segments}
}

// Pattern returns the template with {{token}} placeholders.
func (t *URLTemplate) Pattern() string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.Token != "" {
			b.WriteString("{{" + seg.Token + "}}")
			continue
		}
		b.WriteString(seg.Literal)
	}
	return b.String()
}

// Render substitutes placeholder values. Tokens without a value keep their
// placeholder form so partially-rendered patterns stay recognisable.
func (t *URLTemplate) Render(values map[string]string) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.Token != "" {
			if v, ok := values[seg.Token]; ok {
				b.WriteString(v)
			} else {
				b.WriteString("{{" + seg.Token + "}}")
			}
			continue
		}
		b.WriteString(seg.Literal)
	}
	return b.String()
}

// Tokens lists the placeholder names in order of appearance.
func (t *URLTemplate) Tokens() []string {
	out := make([]string, 0, len(t.segments))
	for _, seg := range t.segments {
		if seg.Token != "" {
			out = append(out, seg.Token)
		}
	}
	return out
}
