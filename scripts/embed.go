// Package scripts embeds the Risor scripts that resolve imports.
package scripts

import "embed"

// FS holds the resolution scripts, addressed as resolve/<language>.risor.
//
//go:embed resolve/*.risor
var FS embed.FS
