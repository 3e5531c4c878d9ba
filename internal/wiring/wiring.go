// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/knit/internal/adapters/config"
	_ "go.trai.ch/knit/internal/adapters/fs"
	_ "go.trai.ch/knit/internal/adapters/logger"
	// Register app and engine nodes.
	_ "go.trai.ch/knit/internal/app"
	_ "go.trai.ch/knit/internal/engine/scheduler"
)
