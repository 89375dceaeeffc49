package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/switchkit/switchboard/agent"
	"github.com/switchkit/switchboard/knowledge"
	"github.com/switchkit/switchboard/logging"
	"github.com/switchkit/switchboard/provider"
	"github.com/switchkit/switchboard/provider/anthropic"
	"github.com/switchkit/switchboard/provider/openai"
	"github.com/switchkit/switchboard/runtime"
	"github.com/switchkit/switchboard/server"
	"github.com/switchkit/switchboard/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the switchboard server",
	Long: "Starts the session API and websocket channel, hosting the standard\n" +
		"project-management agent team. Configured via SWITCHBOARD_* environment\n" +
		"variables (provider, model, port, log level, knowledge dir).",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})

	client, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	logger.Info("completion provider ready",
		"provider", client.Info().Provider, "model", client.Info().Name)

	svc, err := knowledge.NewService(cfg.KnowledgeDir, func(o *knowledge.ServiceOptions) {
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	team, err := agent.Team(client, func(o *agent.TeamOptions) {
		o.Logger = logger
		o.Knowledge = svc
	})
	if err != nil {
		return err
	}

	rt := runtime.New(session.NewInMemoryStore(), func(o *runtime.Options) {
		o.Logger = logger
		if cfg.Greeting != "" {
			o.Greeting = cfg.Greeting
		}
	})
	for _, a := range team {
		if err := rt.Subscribe(a); err != nil {
			return err
		}
	}

	srv := server.New(cfg, rt, func(o *server.Options) { o.Logger = logger })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildProvider(cfg server.Config) (provider.CompletionClient, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "anthropic":
		var optFns []func(o *anthropic.Options)
		if cfg.Model != "" {
			optFns = append(optFns, anthropic.WithModel(cfg.Model))
		}
		return anthropic.NewClient(optFns...), nil
	case "mock":
		return provider.NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want openai, anthropic or mock)", cfg.Provider)
	}
}
