// Package web embeds the landing page and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed views/index.html public
var content embed.FS

// Views holds the HTML pages.
var Views = mustSub("views")

// Public holds the static assets served under /public/.
var Public = mustSub("public")

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
