package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_DisabledPassesThrough(t *testing.T) {
	r := NewRenderer(false)

	out, err := r.Render("plain **markdown** text")
	require.NoError(t, err)
	assert.Equal(t, "plain **markdown** text", out)
	assert.False(t, r.Enabled())
}

func TestRender_PromotesLinesToHeadings(t *testing.T) {
	r := NewRenderer(true)

	out, err := r.Render("first line\nsecond line")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>first line</h1>")
	assert.Contains(t, out, "<h1>second line</h1>")
}

func TestRender_SkipsEmptyAndImageLines(t *testing.T) {
	r := NewRenderer(true)

	out, err := r.Render("a line\n\n<img src=\"x.png\">")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>a line</h1>")
	assert.NotContains(t, out, "<h1><img")
}
