package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/records"    //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/taghelpers" //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/telemetry"  //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/loom/internal/engine/snapshot"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the wired application with the adapters the CLI needs
// direct access to.
type Components struct {
	App        *App
	Logger     ports.Logger
	Manager    *snapshot.Manager
	Loader     ports.ProjectLoader
	TagHelpers ports.TagHelperProvider
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			snapshot.NodeID,
			taghelpers.NodeID,
			records.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ProjectLoader](ctx)
			if err != nil {
				return nil, err
			}

			manager, err := graft.Dep[*snapshot.Manager](ctx)
			if err != nil {
				return nil, err
			}

			helpers, err := graft.Dep[ports.TagHelperProvider](ctx)
			if err != nil {
				return nil, err
			}

			recordStore, err := graft.Dep[ports.CompileRecordStore](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, manager, helpers, recordStore, tracer, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	manager, err := graft.Dep[*snapshot.Manager](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ProjectLoader](ctx)
	if err != nil {
		return nil, err
	}

	helpers, err := graft.Dep[ports.TagHelperProvider](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:        application,
		Logger:     log,
		Manager:    manager,
		Loader:     loader,
		TagHelpers: helpers,
	}, nil
}
