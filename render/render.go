// Package render turns generated article text into HTML suitable for a
// preview pane.
package render

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()
)

// BodyHTML converts a markdown article body to HTML and strips anything a
// model could have injected (scripts, event handlers, inline frames).
func BodyHTML(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// Paragraphs splits a plain-text body into non-empty paragraphs. Models often
// answer with single newlines between paragraphs, so both blank-line and
// single-line separation are honoured.
func Paragraphs(body string) []string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
