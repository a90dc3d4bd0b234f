package main

import (
	"github.com/JaimeStill/adjuster/internal/api"
	"github.com/JaimeStill/adjuster/internal/config"
	"github.com/JaimeStill/adjuster/internal/infrastructure"
	"github.com/JaimeStill/adjuster/pkg/middleware"
	"github.com/JaimeStill/adjuster/pkg/module"
	"github.com/JaimeStill/adjuster/web/scalar"
)

// Modules holds the mountable units of the service: the claims API and
// the Scalar reference UI that documents it.
type Modules struct {
	API    *module.Module
	Scalar *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	scalarModule, err := scalar.NewModule("/scalar", cfg.API.BasePath+"/openapi.json")
	if err != nil {
		return nil, err
	}
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
}
