// Package views embeds the HTML templates.
package views

import "embed"

//go:embed layout.html blog/*.html
var Files embed.FS
