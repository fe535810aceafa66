package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sandevgo/storedash/internal/catalog"
	"github.com/sandevgo/storedash/internal/config"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/internal/ranking"
	"github.com/sandevgo/storedash/internal/remote"
	"github.com/sandevgo/storedash/internal/service/fallback"
	"github.com/sandevgo/storedash/internal/service/feed"
	"github.com/sandevgo/storedash/internal/service/session"
	"github.com/sandevgo/storedash/internal/storage/sqlite"
	"github.com/sandevgo/storedash/internal/transport/ops"
	"github.com/sandevgo/storedash/internal/transport/telegram"
	"github.com/sandevgo/storedash/internal/transport/tui"
	"github.com/sandevgo/storedash/pkg/srv"
)

var errNoShell = errors.New("no shell enabled: set STOREDASH_ENABLE_TUI, STOREDASH_ENABLE_TELEGRAM or STOREDASH_METRICS_ADDR")

// components is the retrieval and recommendation core shared by every command.
type components struct {
	cfg         *config.AppConfig
	db          *sql.DB
	repo        *sqlite.CatalogRepo
	store       *catalog.Store
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	client      *remote.Client
	recommender *fallback.Recommender
	browser     *fallback.Browser
}

func newComponents(ctx context.Context, cfg *config.AppConfig) (*components, error) {
	// 1. Storage
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, err
	}
	repo := sqlite.NewCatalogRepo(db)

	// 2. Reference catalog
	store, err := catalog.Load(ctx, repo)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// 4. Remote client and fallback orchestrators
	client := remote.NewClient(remote.Config{
		BaseURL:      cfg.GetAPIURL(),
		CallTimeout:  cfg.GetCallTimeout(),
		ProbeTimeout: cfg.GetProbeTimeout(),
	}, m)
	engine := ranking.NewEngine(store, ranking.DefaultWeights())

	return &components{
		cfg:         cfg,
		db:          db,
		repo:        repo,
		store:       store,
		registry:    reg,
		metrics:     m,
		client:      client,
		recommender: fallback.NewRecommender(client, engine, store, m),
		browser:     fallback.NewBrowser(client, store, m),
	}, nil
}

func (c *components) Close() error {
	return c.db.Close()
}

// NewServices wires the session and the enabled shells around the core.
// Services shut down in reverse order, so shells stop before the session
// and the database.
func NewServices(ctx context.Context, c *components) ([]srv.Service, error) {
	cfg := c.cfg
	services := []srv.Service{srv.NewCleanup(c.Close)}

	catalogFeed := feed.New(ctx, c.browser, cfg.GetPageSize(), c.metrics)
	sess := session.New(ctx, c.recommender, session.Options{
		TopK:   cfg.GetTopK(),
		Window: cfg.GetDebounceWindow(),
	}, c.metrics)
	services = append(services, srv.NewCleanup(func() error {
		sess.Close()
		catalogFeed.Close()
		return nil
	}))

	shells := 0

	if cfg.MetricsAddr != "" {
		services = append(services, ops.NewServer(ctx, cfg.MetricsAddr, c.registry, sess, catalogFeed, c.client))
		shells++
	}

	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, sess, catalogFeed, c.store, c.client)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
		shells++
	}

	if cfg.EnableTUI {
		services = append(services, tui.NewDashboard(catalogFeed, sess, c.store))
		shells++
	}

	if shells == 0 {
		return nil, errNoShell
	}
	return services, nil
}

// initEnv loads <runtime>/.env when present and returns its path.
func initEnv(runtimePath string) (string, error) {
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return envFile, err
	}

	if err := godotenv.Load(envFile); err != nil {
		return envFile, err
	}
	return envFile, nil
}
