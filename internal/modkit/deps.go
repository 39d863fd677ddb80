// Package modkit provides module wiring and core deps
package modkit

import (
	"tidepool/internal/core/fed"
	"tidepool/internal/modkit/repokit"
	"tidepool/internal/platform/config"
	"tidepool/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner

	// Fed is the federation context for this instance (origin, domain, key id)
	// constructed once in main and passed by value, never a process singleton
	Fed fed.Context
}
