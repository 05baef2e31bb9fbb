package web

import "embed"

// TemplatesFS embeds the HTML pages and partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds css and js.
//
//go:embed static/*
var StaticFS embed.FS
