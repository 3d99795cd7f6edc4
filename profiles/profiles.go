// Package profiles provides embedded TSA issuing profile templates.
//
// These profiles define timestamping policies and are embedded in the
// binary for convenience. Users can also copy and customize them.
package profiles

import "embed"

// FS contains all embedded profile YAML files under tsa/.
//
//go:embed all:tsa
var FS embed.FS
