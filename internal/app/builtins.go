package app

import (
	"go.uber.org/zap"

	"github.com/mentathq/mentat/internal/config"
	errs "github.com/mentathq/mentat/internal/errors"
	"github.com/mentathq/mentat/internal/llm"
	"github.com/mentathq/mentat/internal/workflow"
	"github.com/mentathq/mentat/internal/workflow/twitter"
)

// Deps carries the shared dependencies workflows are built from.
type Deps struct {
	Store       config.Store
	Backend     *llm.Backend
	Logger      *zap.Logger
	Interactive bool
}

// builtins is the explicit registration table. Adding a workflow means
// adding a row here; there is no reflection or filesystem scanning.
var builtins = []struct {
	name  string
	build func(deps Deps) workflow.Workflow
}{
	{
		name: "twitter",
		build: func(deps Deps) workflow.Workflow {
			return twitter.New(deps.Store, deps.Backend, deps.Logger, deps.Interactive)
		},
	},
}

// AllWorkflows builds every builtin workflow, configured or not. Used by
// listings that show validation state.
func AllWorkflows(deps Deps) []workflow.Workflow {
	ws := make([]workflow.Workflow, 0, len(builtins))
	for _, b := range builtins {
		ws = append(ws, b.build(deps))
	}
	return ws
}

// Discover builds the builtin workflows and registers those whose
// environment validates. A workflow with missing configuration is logged
// and skipped; a duplicate registration is logged and skipped. Neither is
// fatal to the rest of the table.
func Discover(reg *workflow.Registry, deps Deps) []workflow.Info {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var registered []workflow.Info
	for _, b := range builtins {
		w := b.build(deps)

		if !w.ValidateEnvironment() {
			log.Info("workflow not configured, skipping", zap.String("name", b.name))
			continue
		}

		if err := reg.Register(w); err != nil {
			if errs.IsDuplicateWorkflow(err) {
				log.Warn("duplicate workflow registration skipped", zap.String("name", b.name))
				continue
			}
			log.Error("workflow registration failed", zap.String("name", b.name), zap.Error(err))
			continue
		}

		registered = append(registered, workflow.Info{
			Name:        w.Name(),
			Description: w.Description(),
			Configured:  true,
		})
	}

	if deps.Backend != nil {
		deps.Backend.SetWorkflows(reg.Names())
	}
	return registered
}
