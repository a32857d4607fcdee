// Package web serves the console's embedded browser assets and provides the
// markdown rendering helper used by the API layer.
package web

import "embed"

// StaticFS holds the embedded console assets.
//
//go:embed static/*
var StaticFS embed.FS
