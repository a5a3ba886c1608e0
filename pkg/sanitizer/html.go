// Package sanitizer turns user-written text into HTML that is safe to embed
// in a page.
package sanitizer

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	policy   *bluemonday.Policy
	initOnce sync.Once
)

func initPolicy() {
	initOnce.Do(func() {
		policy = bluemonday.NewPolicy()
		policy.AllowStandardURLs()
		policy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i", "del",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
			"table", "thead", "tbody", "tr", "th", "td",
		)
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
	})
}

// SanitizeHTML keeps basic formatting and drops everything executable.
func SanitizeHTML(s string) string {
	initPolicy()
	return policy.Sanitize(s)
}

// Markdown renders practitioner notes. Line breaks typed in the note are
// kept; raw HTML in the source is dropped, and the output is sanitized.
type Markdown struct {
	md goldmark.Markdown
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render converts src. A conversion failure falls back to the sanitized
// source so a note is never lost from the page.
func (m *Markdown) Render(src string) string {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return SanitizeHTML(src)
	}
	return SanitizeHTML(buf.String())
}
