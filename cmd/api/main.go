package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskgate/taskgate/internal/api"
	"github.com/taskgate/taskgate/internal/audit"
	"github.com/taskgate/taskgate/internal/classify"
	"github.com/taskgate/taskgate/internal/config"
	"github.com/taskgate/taskgate/internal/connectors"
	"github.com/taskgate/taskgate/internal/events"
	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/pipeline"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	slog.Info("starting taskgate API")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Taxonomy.
	var reg *taxonomy.Registry
	if cfg.TaxonomyPath != "" {
		reg, err = taxonomy.Load(cfg.TaxonomyPath)
		if err != nil {
			slog.Error("failed to load taxonomy", "error", err)
			os.Exit(1)
		}
		slog.Info("taxonomy loaded", "path", cfg.TaxonomyPath, "tasks", len(reg.Tasks()), "personas", len(reg.Personas()))
	} else {
		reg = taxonomy.Default()
		slog.Info("using built-in taxonomy")
	}

	// Audit log.
	db, err := audit.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open audit database", "error", err)
		os.Exit(1)
	}
	log, err := audit.NewLog(db)
	if err != nil {
		slog.Error("failed to initialize audit log", "error", err)
		os.Exit(1)
	}

	// Intent extractor.
	var extractor intent.Extractor
	if cfg.Gemini.APIKey != "" {
		extractor, err = intent.NewGeminiExtractor(context.Background(), intent.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		}, reg)
		if err != nil {
			slog.Error("failed to initialize gemini extractor", "error", err)
			os.Exit(1)
		}
		slog.Info("using gemini extractor", "model", cfg.Gemini.Model)
	} else {
		extractor = intent.NewKeywordExtractor()
		slog.Info("no gemini API key configured, using keyword extractor")
	}

	// Decision events (optional).
	var publisher pipeline.Publisher
	var natsPub *events.Publisher
	if cfg.NATS.URL != "" {
		natsCfg := events.DefaultConfig(cfg.NATS.URL)
		natsCfg.Token = cfg.NATS.Token
		natsPub, err = events.Connect(natsCfg)
		if err != nil {
			slog.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		publisher = natsPub
	}

	policy := classify.Policy{Threshold: cfg.Classify.Threshold, Margin: cfg.Classify.Margin}
	pipe := pipeline.New(reg, extractor, policy, log, publisher)

	// Resource connectors, invoked only after ALLOW.
	manager := connectors.NewManager()
	manager.Register(taxonomy.ResourceGitHub, connectors.NewCodeHostConnector(nil))
	if len(cfg.Filesystem) > 0 {
		roots := make(map[taxonomy.ResourceClass]string, len(cfg.Filesystem))
		for rc, root := range cfg.Filesystem {
			roots[taxonomy.ResourceClass(rc)] = root
		}
		fs, err := connectors.NewFileSystemConnector(roots)
		if err != nil {
			slog.Error("invalid filesystem connector config", "error", err)
			os.Exit(1)
		}
		for rc := range roots {
			manager.Register(rc, fs)
		}
	}

	srv := api.NewServer(api.Deps{
		Registry:   reg,
		Pipeline:   pipe,
		Extractor:  extractor,
		Policy:     policy,
		Audit:      log,
		Connectors: manager,
		AuthSecret: cfg.AuthSecret,
	})

	// Start server in background.
	go func() {
		if err := srv.Listen(cfg.ListenAddr); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down taskgate API")
	if err := srv.Shutdown(); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if natsPub != nil {
		natsPub.Close()
	}
}
