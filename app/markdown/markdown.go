// Package markdown turns post content into sanitized HTML for display.
package markdown

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var policy = bluemonday.UGCPolicy()

// Render converts markdown src to HTML safe to embed in a page.
func Render(src string) template.HTML {
	unsafe := blackfriday.Run([]byte(src))
	return template.HTML(policy.SanitizeBytes(unsafe))
}
