// Package render converts outgoing reply text to HTML for image-capable
// chat frontends. A disabled Renderer is a passthrough.
package render
