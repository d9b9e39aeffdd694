package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/runtime"
)

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	stepCtxType = reflect.TypeOf((*runtime.StepContext)(nil))
	errType     = reflect.TypeOf((*error)(nil)).Elem()
)

// Validate performs a strict startup check: every step in the model names a
// registered runner, and every registered handler has the required shape.
// All problems are reported together.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	var errs []string

	for name, handler := range r.HandlerRegistry {
		if err := validateHandler(handler); err != nil {
			errs = append(errs, fmt.Sprintf("runner '%s': %v", name, err))
		}
	}

	for _, job := range model.Jobs {
		for _, step := range job.Steps {
			if _, ok := r.HandlerRegistry[step.RunnerType]; !ok {
				errs = append(errs, fmt.Sprintf(
					"job '%s', step '%s': unknown runner type '%s' (registered: %s)",
					job.Name, step.Name, step.RunnerType, strings.Join(r.RunnerTypes(), ", ")))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// validateHandler checks the handler function shape:
// func(context.Context, *runtime.StepContext, *Input) (Output, error).
func validateHandler(h *RegisteredRunner) error {
	if h.Fn == nil {
		return fmt.Errorf("nil handler function")
	}
	if h.NewInput == nil {
		return fmt.Errorf("nil NewInput constructor")
	}

	fnType := reflect.TypeOf(h.Fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler is %s, not a function", fnType.Kind())
	}
	if fnType.NumIn() != 3 || fnType.NumOut() != 2 {
		return fmt.Errorf("handler must be func(ctx, *runtime.StepContext, *Input) (Output, error)")
	}
	if !fnType.In(0).Implements(ctxType) {
		return fmt.Errorf("first parameter must be context.Context, got %s", fnType.In(0))
	}
	if fnType.In(1) != stepCtxType {
		return fmt.Errorf("second parameter must be *runtime.StepContext, got %s", fnType.In(1))
	}
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("second return value must be error, got %s", fnType.Out(1))
	}

	inputType := reflect.TypeOf(h.NewInput())
	if inputType != fnType.In(2) {
		return fmt.Errorf("NewInput returns %s but handler takes %s", inputType, fnType.In(2))
	}
	return nil
}
