package assets

import (
	"embed"
	"io/fs"
)

// LogoPNG is the startup splash.
//
//go:embed logo.png
var LogoPNG []byte

//go:embed web
var webFS embed.FS

// WebUI is an embedded filesystem rooted at internal/assets/web.
// It contains the preview page served at "/".
var WebUI fs.FS

func init() {
	// Embed paths include the leading directory; strip it for serving at '/'.
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	WebUI = sub
}
