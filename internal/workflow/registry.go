package workflow

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	errs "github.com/mentathq/mentat/internal/errors"
)

// Info is a listing row for one registered workflow.
type Info struct {
	// Name is the registry key.
	Name string `json:"name"`

	// DisplayName is the title-cased name for human-facing output.
	DisplayName string `json:"display_name"`

	// Description is the workflow's one-line summary.
	Description string `json:"description"`

	// Configured reports whether the workflow's environment validated at
	// listing time.
	Configured bool `json:"configured"`
}

// Registry holds the registered workflows and routes execution to them.
// Registration happens once at startup from an explicit table; the registry
// does no discovery of its own.
type Registry struct {
	log       *zap.Logger
	workflows map[string]Workflow
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:       log,
		workflows: make(map[string]Workflow),
	}
}

// Register adds a workflow under its name. A duplicate name fails with
// ErrDuplicateWorkflow and the earlier registration is retained.
func (r *Registry) Register(w Workflow) error {
	name := w.Name()
	if _, exists := r.workflows[name]; exists {
		return &errs.WorkflowError{Op: "register", Name: name, Err: errs.ErrDuplicateWorkflow}
	}

	r.workflows[name] = w
	r.order = append(r.order, name)
	r.log.Debug("workflow registered", zap.String("name", name))
	return nil
}

// Get returns the workflow registered under name.
func (r *Registry) Get(name string) (Workflow, error) {
	w, ok := r.workflows[name]
	if !ok {
		return nil, &errs.WorkflowError{Op: "get", Name: name, Err: errs.ErrWorkflowNotFound}
	}
	return w, nil
}

// Names returns the registered workflow names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Len returns the number of registered workflows.
func (r *Registry) Len() int {
	return len(r.workflows)
}

// List returns listing rows for every registered workflow, sorted by name.
func (r *Registry) List() []Info {
	title := cases.Title(language.English)

	infos := make([]Info, 0, len(r.workflows))
	for _, name := range r.Names() {
		w := r.workflows[name]
		infos = append(infos, Info{
			Name:        name,
			DisplayName: title.String(name),
			Description: w.Description(),
			Configured:  w.ValidateEnvironment(),
		})
	}
	return infos
}

// Execute routes one parsed command to its workflow. The workflow's
// environment is re-validated on every call; a workflow that was configured
// yesterday and broken today fails here with ErrEnvironmentNotConfigured
// before Execute is ever invoked.
func (r *Registry) Execute(ctx context.Context, name, command string, params map[string]string) (string, error) {
	w, err := r.Get(name)
	if err != nil {
		return "", err
	}

	if !w.ValidateEnvironment() {
		r.log.Warn("workflow environment invalid", zap.String("name", name))
		return "", &errs.WorkflowError{Op: "execute", Name: name, Err: errs.ErrEnvironmentNotConfigured}
	}

	r.log.Debug("executing workflow command",
		zap.String("workflow", name),
		zap.String("command", command))

	result, err := w.Execute(ctx, command, params)
	if err != nil {
		return "", &errs.WorkflowError{Op: "execute", Name: name, Err: err}
	}
	return result, nil
}
