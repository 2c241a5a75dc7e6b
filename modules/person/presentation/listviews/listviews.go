// Package listviews embeds the list view definitions of the person module.
package listviews

import "embed"

//go:embed *.yaml
var FS embed.FS
