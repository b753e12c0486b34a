package main

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"tech-trends/aggregator"
	"tech-trends/analyzer"
	"tech-trends/config"
	"tech-trends/db"
	"tech-trends/eventbus"
	"tech-trends/events"
	"tech-trends/metrics"
	"tech-trends/models"
	"tech-trends/repositories"
	"tech-trends/source"
	"tech-trends/store"
	"tech-trends/trend"
)

// app holds the long-lived dependencies shared by every stage.
type app struct {
	cfg     config.AppConfig
	store   store.DocumentStore
	bus     eventbus.EventBus
	aiLogs  *repositories.AILogRepository
	llm     *genai.Client
	quota   *analyzer.QuotaLimiter
	closers []func(ctx context.Context)
}

func loadConfig() (config.AppConfig, error) {
	if cfgFile != "" {
		if err := config.InitAppFrom(cfgFile); err != nil {
			return config.AppConfig{}, fmt.Errorf("load config: %w", err)
		}
	}
	return config.GetConfig(), nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	config.InitLogger(cfg.Logging)
	metrics.Init(serviceName, version)

	a := &app{cfg: cfg, quota: analyzer.NewQuotaLimiter(cfg.LLMQuota)}
	if err := a.open(ctx); err != nil {
		a.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context) error {
	backend := strings.ToLower(a.cfg.Store.Backend)
	if backend == "mongo" || a.cfg.LLM.UsageLog {
		if err := db.Init(ctx, a.cfg.Store.Mongo); err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, func(ctx context.Context) {
			if err := db.Disconnect(ctx); err != nil {
				config.WarnWithFields("mongo disconnect failed", config.Fields{"error": err.Error()})
			}
		})
		a.aiLogs = repositories.NewAILogRepository(db.Database())
	}

	s, err := a.openStore(backend)
	if err != nil {
		return err
	}
	a.store = s

	bus, err := eventbus.New(ctx, a.cfg.Events)
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	a.bus = bus
	a.closers = append(a.closers, func(context.Context) { bus.Close() })

	config.InfoWithFields("application initialized", config.Fields{
		"store":  backend,
		"events": a.cfg.Events.Backend,
		"model":  a.cfg.LLM.ModelName,
	})
	return nil
}

func (a *app) openStore(backend string) (store.DocumentStore, error) {
	switch backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "", "file":
		return store.NewFileStore(a.cfg.Store.File.Root), nil
	case "sqlite":
		s, err := store.NewSQLiteStore(a.cfg.Store.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) { s.Close() })
		return s, nil
	case "mongo":
		return store.NewMongoStore(db.Database()), nil
	case "github":
		s, err := store.NewGitHubStore(a.cfg.Store.GitHub)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

func (a *app) llmClient(ctx context.Context) (*genai.Client, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	client, err := analyzer.NewGeminiClient(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.llm = client
	return client, nil
}

func (a *app) newAnalyzer(ctx context.Context, instruction, purpose string) (*analyzer.Gemini, error) {
	client, err := a.llmClient(ctx)
	if err != nil {
		return nil, err
	}
	opts := []analyzer.GeminiOption{analyzer.WithQuota(a.quota)}
	if a.aiLogs != nil {
		opts = append(opts, analyzer.WithUsageLog(a.aiLogs))
	}
	return analyzer.NewGemini(client, a.cfg.LLM, instruction, purpose, opts...), nil
}

func (a *app) newDaily(ctx context.Context) (*aggregator.Daily, error) {
	analyzers := make(map[models.Area]analyzer.Analyzer, len(models.AllAreas))
	for _, area := range models.AllAreas {
		an, err := a.newAnalyzer(ctx, analyzer.InstructionFor(area), area.Slug())
		if err != nil {
			return nil, err
		}
		analyzers[area] = an
	}

	src, err := source.New(a.cfg.Collector)
	if err != nil {
		return nil, err
	}

	builder := trend.NewBuilder(trend.WeightsFromConfig(a.cfg.Scoring), a.cfg.Scoring.ReferencePostLimit)
	pub := aggregator.NewPublisher(a.store, a.bus, events.SourceDaily)
	return aggregator.NewDaily(src, analyzers, pub, builder, a.cfg.Collector.MaxPostsPerArea), nil
}

func (a *app) newWeekly(ctx context.Context) (*aggregator.Weekly, error) {
	an, err := a.newAnalyzer(ctx, analyzer.SummaryInstruction, "weekly_summary")
	if err != nil {
		return nil, err
	}
	return aggregator.NewWeekly(aggregator.NewPublisher(a.store, a.bus, events.SourceWeekly), an), nil
}

func (a *app) newMonthly(ctx context.Context) (*aggregator.Monthly, error) {
	an, err := a.newAnalyzer(ctx, analyzer.RecommendationsInstruction, "monthly_recommendations")
	if err != nil {
		return nil, err
	}
	pub := aggregator.NewPublisher(a.store, a.bus, events.SourceMonthly)
	return aggregator.NewMonthly(pub, an, a.cfg.Monthly.ExcerptLength), nil
}
