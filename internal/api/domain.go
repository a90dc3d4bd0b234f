package api

import (
	"fmt"

	"github.com/JaimeStill/adjuster/internal/documents"
	"github.com/JaimeStill/adjuster/internal/drafting"
	"github.com/JaimeStill/adjuster/internal/pipeline"
	"github.com/JaimeStill/adjuster/internal/precedents"
	"github.com/JaimeStill/adjuster/internal/prompts"
	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/internal/sessions"
	"github.com/JaimeStill/adjuster/internal/tools"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents  documents.System
	Prompts    prompts.System
	Precedents precedents.System
	Sessions   sessions.System
}

// NewDomain creates all domain systems from the API runtime. The knowledge
// base is shared: document intake indexes into it, and the session pipeline
// answers from it.
func NewDomain(runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	kb := retrieval.New(db, runtime.Model, runtime.Logger, retrieval.Options{
		Sources:             runtime.Pipeline.Sources,
		ConfidenceThreshold: runtime.Pipeline.ConfidenceThreshold,
		SelfHealAttempts:    runtime.Pipeline.SelfHealAttempts,
	})

	docsSystem := documents.New(
		db,
		runtime.Storage,
		kb,
		runtime.Logger,
		runtime.Pagination,
	)

	promptsSystem := prompts.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	precedentsSystem := precedents.New(
		db,
		runtime.Model,
		runtime.Logger,
		runtime.Pagination,
	)

	registry, err := tools.NewRegistry(
		runtime.Logger,
		tools.NewNegotiationTip(runtime.Pipeline.NegotiationTable, runtime.Logger),
		tools.NewReservePrediction(
			runtime.Pipeline.ReserveURL,
			runtime.Pipeline.ToolTimeoutDuration(),
			runtime.Logger,
		),
		tools.NewDocumentSkim(kb, runtime.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	rt := &pipeline.Runtime{
		Logger:    runtime.Logger,
		Pipeline:  runtime.Pipeline,
		Subject:   runtime.Subject,
		Model:     runtime.Model,
		Retrieval: kb,
		Tools:     registry,
		Drafting:  drafting.New(runtime.Storage, runtime.Logger),
		Broker:    runtime.Broker,
		Prompts:   promptsSystem,
	}

	sessionsSystem := sessions.New(
		db,
		rt,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents:  docsSystem,
		Prompts:    promptsSystem,
		Precedents: precedentsSystem,
		Sessions:   sessionsSystem,
	}, nil
}
