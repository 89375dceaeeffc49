package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/logging"
	"github.com/switchkit/switchboard/provider"
	"github.com/switchkit/switchboard/tool"
)

// ModelHandlerOptions configures a ModelHandler instance.
//
// Use functional options with NewModelHandler to override defaults.
type ModelHandlerOptions struct {
	Tools         *tool.Set
	Logger        logging.Logger
	MaxToolRounds int
	ToolTimeout   time.Duration
}

// ModelHandler drives a completion provider through a bounded tool loop.
//
// Each HandleTask call sends the transcript plus the agent's tool surface to
// the provider and reacts to its decision: plain text completes the task,
// a delegate tool call short-circuits into a handoff request, and a regular
// tool call is executed and fed back for a follow-up completion. Tool
// failures stay inside the loop as error results; only provider failures and
// an exhausted round budget abort the task.
type ModelHandler struct {
	topic        core.Topic
	client       provider.CompletionClient
	instructions string
	tools        *tool.Set
	dispatcher   *tool.Dispatcher
	logger       logging.Logger
	maxRounds    int
	toolTimeout  time.Duration
}

// NewModelHandler creates a model-backed handler speaking as topic.
//
// Defaults: no tools, five tool rounds per task, 15-second tool timeout.
func NewModelHandler(
	topic core.Topic,
	client provider.CompletionClient,
	instructions string,
	optFns ...func(o *ModelHandlerOptions),
) *ModelHandler {
	opts := ModelHandlerOptions{
		Logger:        logging.NoOpLogger{},
		MaxToolRounds: 5,
		ToolTimeout:   15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tools == nil {
		opts.Tools = tool.MustSet()
	}

	return &ModelHandler{
		topic:        topic,
		client:       client,
		instructions: instructions,
		tools:        opts.Tools,
		dispatcher:   tool.NewDispatcher(func(o *tool.DispatcherOptions) { o.Logger = opts.Logger }),
		logger:       opts.Logger,
		maxRounds:    opts.MaxToolRounds,
		toolTimeout:  opts.ToolTimeout,
	}
}

// HandleTask implements Handler.
func (h *ModelHandler) HandleTask(ctx context.Context, history []core.Message, task core.Message) (Result, error) {
	var trace []core.Message

	for round := 0; round < h.maxRounds; round++ {
		req := provider.Request{
			Instructions: h.instructions,
			Messages:     append(append([]core.Message{}, history...), trace...),
			Tools:        h.toolDefinitions(),
		}

		res, err := h.client.Complete(ctx, req)
		if err != nil {
			return Result{Trace: trace}, err
		}

		if len(res.ToolCalls) == 0 {
			return Result{Response: res.Text, Trace: trace}, nil
		}

		for _, tc := range res.ToolCalls {
			spec, ok := h.tools.Resolve(tc.Name)
			if !ok {
				h.logger.Warn("unknown tool requested", "agent", h.topic, "tool", tc.Name)
				trace = append(trace, h.traceCall(tc), h.traceResult(tc, fmt.Sprintf("Error: unknown tool %q", tc.Name)))
				continue
			}

			if spec.Delegate {
				return Result{
					Response:   res.Text,
					DelegateTo: spec.Target,
					Trace:      trace,
				}, nil
			}

			args, err := tc.ParseArguments()
			if err != nil {
				trace = append(trace, h.traceCall(tc), h.traceResult(tc, fmt.Sprintf("Error: malformed arguments: %v", err)))
				continue
			}

			output, err := h.invoke(ctx, spec, args)
			if err != nil {
				var toolErr *core.ToolExecutionError
				if !errors.As(err, &toolErr) {
					return Result{Trace: trace}, err
				}
				output = fmt.Sprintf("Error: %v", toolErr)
			}
			trace = append(trace, h.traceCall(tc), h.traceResult(tc, output))
		}
	}

	return Result{Trace: trace}, fmt.Errorf("agent %s: tool loop exceeded %d rounds", h.topic, h.maxRounds)
}

func (h *ModelHandler) invoke(ctx context.Context, spec *tool.Spec, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.toolTimeout)
	defer cancel()
	return h.dispatcher.Invoke(ctx, spec, args)
}

func (h *ModelHandler) traceCall(tc provider.ToolCall) core.Message {
	msg := core.NewToolCall(h.topic, tc.Name, string(tc.Arguments))
	msg.ToolCallID = tc.ID
	return msg
}

func (h *ModelHandler) traceResult(tc provider.ToolCall, output string) core.Message {
	return core.NewToolResult(h.topic, tc.Name, tc.ID, output)
}

func (h *ModelHandler) toolDefinitions() []provider.ToolDefinition {
	specs := h.tools.Specs()
	if len(specs) == 0 {
		return nil
	}
	defs := make([]provider.ToolDefinition, len(specs))
	for i, s := range specs {
		defs[i] = provider.ToolDefinition{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.Parameters,
		}
	}
	return defs
}
