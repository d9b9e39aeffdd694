package registry

import (
	"fmt"
	"log/slog"
	"sort"
)

// Module is the interface that all runner modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredRunner holds the compiled Go parts of a step runner.
type RegisteredRunner struct {
	// NewInput returns a pointer to a fresh input struct for the step's
	// arguments block to decode into.
	NewInput func() any
	// Fn is the handler, with signature
	// func(context.Context, *runtime.StepContext, *Input) (Output, error).
	Fn any
}

// Registry maps runner-type names to their handlers for a single application
// instance.
type Registry struct {
	HandlerRegistry map[string]*RegisteredRunner
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		HandlerRegistry: make(map[string]*RegisteredRunner),
	}
}

// RegisterRunner registers a handler under a runner-type name. Registering
// the same name twice is a programmer error.
func (r *Registry) RegisterRunner(name string, handler *RegisteredRunner) {
	if _, exists := r.HandlerRegistry[name]; exists {
		panic(fmt.Sprintf("runner handler with name '%s' already registered", name))
	}
	slog.Debug("Registering runner handler.", "name", name)
	r.HandlerRegistry[name] = handler
}

// Runner returns the handler for a runner type, if registered.
func (r *Registry) Runner(name string) (*RegisteredRunner, bool) {
	h, ok := r.HandlerRegistry[name]
	return h, ok
}

// RunnerTypes returns the registered runner-type names, sorted.
func (r *Registry) RunnerTypes() []string {
	names := make([]string, 0, len(r.HandlerRegistry))
	for n := range r.HandlerRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
