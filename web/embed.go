// Package web embeds the site templates, UI strings, static assets and the
// content resource table so the binary runs without a checkout.
package web

import "embed"

// FS holds templates/, locales/, static/ and resources.yaml.
//
//go:embed all:templates locales static resources.yaml
var FS embed.FS

const (
	TemplatesDir  = "templates"
	LocalesDir    = "locales"
	StaticDir     = "static"
	ResourcesFile = "resources.yaml"
)
