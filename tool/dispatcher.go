package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/internal/schema"
	"github.com/switchkit/switchboard/logging"
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Logger logging.Logger
}

// Dispatcher validates arguments against a spec's schema and invokes the
// handler. Failures never propagate as panics or fatal errors: validation
// problems, handler errors and handler panics all surface as
// core.ToolExecutionError so the session can continue.
type Dispatcher struct {
	logger logging.Logger
}

// NewDispatcher constructs a Dispatcher with optional overrides.
func NewDispatcher(optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{logger: opts.Logger}
}

// Invoke runs the tool described by spec. Arguments are validated before
// the handler executes; a validation failure short-circuits without
// invoking it. For delegate specs Invoke performs no work and returns the
// target topic, keeping the handoff mechanism uniform at the call site.
func (d *Dispatcher) Invoke(ctx context.Context, spec *Spec, args map[string]any) (result string, err error) {
	if spec.Delegate {
		return spec.Target.String(), nil
	}

	if spec.Parameters != nil {
		if verr := schema.Validate(args, spec.Parameters); verr != nil {
			d.logger.Warn("tool.invoke.validation_failed", "tool", spec.Name, "error", verr.Error())
			return "", &core.ToolExecutionError{Tool: spec.Name, Err: verr}
		}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool.invoke.panic", "tool", spec.Name, "recover", fmt.Sprintf("%v", r))
			err = &core.ToolExecutionError{Tool: spec.Name, Err: fmt.Errorf("handler panic: %v", r)}
		}
	}()

	result, herr := spec.Handler(ctx, args)
	if herr != nil {
		d.logger.Error("tool.invoke.error", "tool", spec.Name, "error", herr.Error())
		return "", &core.ToolExecutionError{Tool: spec.Name, Err: herr}
	}

	d.logger.Info("tool.invoke.success", "tool", spec.Name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
