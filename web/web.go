// Package web embeds the portal's HTML templates.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
