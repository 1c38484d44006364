// ABOUTME: Optional markdown-to-HTML transform for outgoing replies
// ABOUTME: Promotes plain lines to headings for large, legible image rendering

package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts outgoing reply text into HTML for frontends that turn
// HTML into images. When disabled it passes text through untouched.
type Renderer struct {
	enabled bool
	md      goldmark.Markdown
}

// NewRenderer creates a Renderer.
func NewRenderer(enabled bool) *Renderer {
	return &Renderer{
		enabled: enabled,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Replies may carry <img> tags that must reach the frontend intact
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
	}
}

// Enabled reports whether rendering is active.
func (r *Renderer) Enabled() bool { return r.enabled }

// Render transforms reply text. Non-empty lines that aren't already markup
// are promoted to headings before markdown conversion so the resulting image
// stays readable at chat-thumbnail sizes.
func (r *Renderer) Render(text string) (string, error) {
	if !r.enabled {
		return text, nil
	}

	var promoted strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "<img") {
			promoted.WriteString(line)
		} else {
			promoted.WriteString("# " + line)
		}
		promoted.WriteByte('\n')
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(promoted.String()), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}
