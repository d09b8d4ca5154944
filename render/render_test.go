package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyHTML_Markdown(t *testing.T) {
	html, err := BodyHTML("# Headline\n\nFirst paragraph with **bold** text.\n\n- one\n- two\n")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Headline</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<li>one</li>")
}

func TestBodyHTML_StripsScripts(t *testing.T) {
	html, err := BodyHTML("Text <script>alert(1)</script> and <a href=\"javascript:alert(1)\">link</a>")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "Text")
}

func TestBodyHTML_Empty(t *testing.T) {
	html, err := BodyHTML("   \n ")
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("First.\r\n\r\nSecond.\nThird.\n\n")
	assert.Equal(t, []string{"First.", "Second.", "Third."}, got)
	assert.Nil(t, Paragraphs("  "))
}
