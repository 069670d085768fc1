// Command slack-jira-agent runs the Slack assistant that turns product
// requests into Jira issues through a tool-calling LLM agent.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/franizus/slack-jira-agent/pkg/agent"
	"github.com/franizus/slack-jira-agent/pkg/config"
	"github.com/franizus/slack-jira-agent/pkg/devgateway"
	"github.com/franizus/slack-jira-agent/pkg/jira"
	"github.com/franizus/slack-jira-agent/pkg/llm/factory"
	"github.com/franizus/slack-jira-agent/pkg/logx"
	"github.com/franizus/slack-jira-agent/pkg/persistence"
	"github.com/franizus/slack-jira-agent/pkg/slack"
	"github.com/franizus/slack-jira-agent/pkg/tools"
)

var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file (optional, env vars override)")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("slack-jira-agent %s\n", version)
		return
	}

	logger := logx.NewLogger("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config: %v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config: %v", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logx.Logger) error {
	client, err := factory.NewClient(&cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	logger.Info("model provider: %s (%s)", cfg.Model.Provider, client.GetModelName())

	jiraClient := jira.NewClient(&cfg.Jira)

	toolSet := []tools.Tool{tools.NewCreateIssueTool(jiraClient)}
	if cfg.DevGateway.URL != "" {
		toolSet = append(toolSet, tools.NewDelegateTool(devgateway.NewClient(&cfg.DevGateway)))
		logger.Info("development gateway enabled: %s", cfg.DevGateway.URL)
	} else {
		logger.Warn("DEV_AGENT_URL not set, delegation tool disabled")
	}
	registry := tools.NewRegistry(toolSet...)

	registerer := prometheus.DefaultRegisterer
	metrics := agent.NewMetrics(registerer)

	var store agent.ConversationStore
	var dedup slack.Deduper
	if cfg.Store.Path != "" {
		db, err := persistence.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer db.Close()
		s := persistence.NewStore(db, cfg.Store.EventRetention)
		store = s
		dedup = s
	} else {
		logger.Warn("DB_PATH not set, running without persistence or event deduplication")
	}

	runner := agent.NewRunner(client, registry, &cfg.Model, metrics)
	resolver := agent.NewResolver(runner, store)

	slackClient := slack.NewClient(&cfg.Slack)
	events := slack.NewEventsHandler(cfg.Slack.SigningSecret, slackClient, resolver, dedup, metrics)

	mux := http.NewServeMux()
	mux.Handle("/slack/events", events)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		logger.Info("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown: %v", err)
	}

	// Let in-flight agent runs post their replies before exiting.
	events.Wait()
	logger.Info("shutdown complete")
	return nil
}
