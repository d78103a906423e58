// Package module defines the minimal module contract plus the bootstrap
// registry used for cross wiring
package module

import (
	phttp "quotary/internal/platform/net/http"
)

// Module is the minimal contract used by modkit; a sibling of modkit.Module
// to avoid import knots when a module also exports its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
