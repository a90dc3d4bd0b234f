// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, broker, model)
// that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/adjuster/internal/config"
	"github.com/JaimeStill/adjuster/pkg/broker"
	"github.com/JaimeStill/adjuster/pkg/database"
	"github.com/JaimeStill/adjuster/pkg/lifecycle"
	"github.com/JaimeStill/adjuster/pkg/llm"
	"github.com/JaimeStill/adjuster/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, blob storage, the message broker, and the
// language model client.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Broker    broker.Publisher
	Model     llm.Provider
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	pub, err := broker.New(&cfg.Broker, logger)
	if err != nil {
		return nil, fmt.Errorf("broker init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Broker:    pub,
		Model:     llm.NewOllama(&cfg.Model),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database, storage, and broker hooks are registered for startup and shutdown
// coordination. The model client is connectionless and needs no hooks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Broker.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("broker start failed: %w", err)
	}
	return nil
}
