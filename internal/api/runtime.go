package api

import (
	"github.com/JaimeStill/adjuster/internal/config"
	"github.com/JaimeStill/adjuster/internal/infrastructure"
	"github.com/JaimeStill/adjuster/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Pipeline   *config.PipelineConfig
	Subject    string
}

// NewRuntime creates an API runtime with a module-scoped logger. Run payloads
// publish to the broker subject prefix.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Broker:    infra.Broker,
			Model:     infra.Model,
		},
		Pagination: cfg.API.Pagination,
		Pipeline:   &cfg.Pipeline,
		Subject:    cfg.Broker.SubjectPrefix,
	}
}
