package api

import (
	"net/http"

	"github.com/JaimeStill/adjuster/internal/config"
	"github.com/JaimeStill/adjuster/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	)
	routes.Register(mux, domain.Sessions.Handler().Routes())
	routes.Register(mux, domain.Prompts.Handler().Routes())
	routes.Register(mux, domain.Precedents.Handler().Routes())
	routes.Register(
		mux,
		newStorageHandler(runtime.Storage, runtime.Logger, cfg.API.MaxListResults).routes(),
	)
}
