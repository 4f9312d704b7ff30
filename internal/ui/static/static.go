// Package static embeds the dashboard's browser assets.
package static

import "embed"

//go:embed dashboard.js dashboard.css
var Files embed.FS
