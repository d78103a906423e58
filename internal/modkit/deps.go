package modkit

import (
	"quotary/internal/modkit/repokit"
	"quotary/internal/platform/config"
	"quotary/internal/platform/logger"
)

// Deps holds core dependencies passed to modules; wiring only, no new
// abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
}
