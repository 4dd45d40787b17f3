// Package web embeds the HTML templates and static assets served by internal/web.
package web

import "embed"

// TemplatesFS holds layouts/, pages/ and partials/ under templates/.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS holds the stylesheet under static/.
//
//go:embed all:static
var StaticFS embed.FS
