package brandsite

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// brand.css and the fallback favicon.svg
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
