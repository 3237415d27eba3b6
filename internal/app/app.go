// Package app wires the engine components behind the CLI commands: config in,
// a ready-to-use set of services out.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/capability"
	"github.com/abhisek/mentor/internal/config"
	"github.com/abhisek/mentor/internal/extractor"
	"github.com/abhisek/mentor/internal/interview"
	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/progress"
	"github.com/abhisek/mentor/internal/roadmap"
	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/store"
)

// App bundles the wired components a command needs.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     store.Store
	Graph     *skillgraph.Graph
	Model     *mastery.Model
	Extractor *extractor.Extractor
	Generator *roadmap.Generator
	Engine    *interview.Engine
	Tracker   *progress.Tracker

	// Provider is nil when no LLM provider is configured; capabilities run
	// on their deterministic implementations then.
	Provider llm.Provider
}

// New builds the full component graph and hydrates the configured learner's
// model state from the store.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.JSON, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	graph, err := skillgraph.Load(cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("loading skill graph: %w", err)
	}

	dsn, err := resolveDSN(cfg.DB)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	model := mastery.NewModel(graph, cfg.Mastery, st, log)
	provider := newProvider(ctx, st, log)
	analyzer, questions, judge := buildCapabilities(provider, log)

	gen := roadmap.NewGenerator(graph, model, cfg.Roadmap, log)
	tracker := progress.New(graph, model, gen, st, cfg.Progress, log)

	a := &App{
		Config:    cfg,
		Logger:    log,
		Store:     st,
		Graph:     graph,
		Model:     model,
		Extractor: extractor.New(graph, analyzer, cfg.Extractor, log),
		Generator: gen,
		Engine:    interview.NewEngine(graph, model, questions, judge, st, cfg.Interview, log),
		Tracker:   tracker,
		Provider:  provider,
	}

	if err := tracker.Hydrate(ctx, cfg.Learner); err != nil {
		st.Close()
		return nil, fmt.Errorf("hydrating learner state: %w", err)
	}
	return a, nil
}

// Close flushes the logger and releases the store.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.Store.Close()
}

// resolveDSN falls back to the default XDG path and makes sure a SQLite
// path's parent directory exists.
func resolveDSN(dsn string) (string, error) {
	if dsn == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return "", fmt.Errorf("resolving database path: %w", err)
		}
		return p, nil
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		if err := store.EnsureDir(dsn); err != nil {
			return "", fmt.Errorf("creating database directory: %w", err)
		}
	}
	return dsn, nil
}

// newProvider builds the LLM provider from the environment. MENTOR_* settings
// win; otherwise standard API key variables are probed. No provider at all is
// not an error, the capabilities degrade to deterministic behavior.
func newProvider(ctx context.Context, events llm.CallLog, log *zap.Logger) llm.Provider {
	cfg := llm.ConfigFromEnv()
	if cfg.Validate() != nil {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			log.Info("no LLM provider configured, running with deterministic capabilities")
			return nil
		}
		cfg = discovered
	}

	p, err := llm.NewProvider(ctx, cfg, events, log)
	if err != nil {
		log.Warn("initializing LLM provider, falling back to deterministic capabilities", zap.Error(err))
		return nil
	}
	log.Debug("LLM provider ready",
		zap.String(logger.FieldProvider, cfg.Provider),
		zap.String(logger.FieldModel, p.ModelID()),
	)
	return p
}

// buildCapabilities returns the three injectable judgment services. Without a
// provider the analyzer falls back to keyword matching, the interview engine
// to its static question bank, and answers go unscored.
func buildCapabilities(provider llm.Provider, log *zap.Logger) (capability.TextAnalyzer, capability.QuestionSource, capability.ResponseJudge) {
	if provider == nil {
		return capability.KeywordAnalyzer{}, nil, nil
	}
	return capability.NewLLMAnalyzer(provider, capability.DefaultAnalyzerConfig(), log),
		capability.NewLLMQuestionSource(provider, capability.DefaultQuestionConfig()),
		capability.NewLLMJudge(provider, capability.DefaultJudgeConfig())
}
