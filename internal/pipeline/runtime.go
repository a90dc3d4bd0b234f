package pipeline

import (
	"log/slog"

	"github.com/JaimeStill/adjuster/internal/config"
	"github.com/JaimeStill/adjuster/internal/drafting"
	"github.com/JaimeStill/adjuster/internal/prompts"
	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/internal/tools"
	"github.com/JaimeStill/adjuster/pkg/broker"
	"github.com/JaimeStill/adjuster/pkg/llm"
)

// DefaultSubject is the broker subject run payloads publish to when the
// runtime does not override it.
const DefaultSubject = "claim-facts"

// Runtime bundles the collaborators that pipeline stages require. It is
// constructed once at process start by higher-level composition code and
// passed by reference into every node; stages hold no package-level state.
type Runtime struct {
	Logger    *slog.Logger
	Pipeline  *config.PipelineConfig
	Subject   string
	Model     llm.Provider
	Retrieval retrieval.System
	Tools     *tools.Registry
	Drafting  drafting.Renderer
	Broker    broker.Publisher
	Prompts   prompts.Resolver
}

// subject returns the publication subject, falling back to DefaultSubject.
func (rt *Runtime) subject() string {
	if rt.Subject != "" {
		return rt.Subject
	}

	return DefaultSubject
}
