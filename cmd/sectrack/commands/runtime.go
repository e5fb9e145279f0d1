package commands

import (
	"fmt"

	"github.com/wonny/sectrack/internal/pricing"
	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/config"
	"github.com/wonny/sectrack/pkg/logger"
)

// runtime bundles the dependencies every command starts from.
type runtime struct {
	cfg    *config.Config
	logger *logger.Logger
	store  *store.Store
	api    *pricing.Client
}

// initRuntime loads config and opens the store and pricing client.
func initRuntime() (*runtime, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &runtime{
		cfg:    cfg,
		logger: log,
		store:  st,
		api:    pricing.NewClient(cfg, log),
	}, nil
}

// Close releases the runtime's resources.
func (rt *runtime) Close() {
	rt.store.Close()
}
