// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/loom/internal/adapters/compiler"
	_ "go.trai.ch/loom/internal/adapters/config"
	_ "go.trai.ch/loom/internal/adapters/logger"
	_ "go.trai.ch/loom/internal/adapters/records"
	_ "go.trai.ch/loom/internal/adapters/resolver"
	_ "go.trai.ch/loom/internal/adapters/taghelpers"
	_ "go.trai.ch/loom/internal/adapters/telemetry"
	_ "go.trai.ch/loom/internal/adapters/text"
	// Register app and engine nodes.
	_ "go.trai.ch/loom/internal/app"
	_ "go.trai.ch/loom/internal/engine/snapshot"
)
