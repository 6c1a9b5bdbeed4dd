package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/accounts"
	"github.com/open-kbs/ai-invoice/internal/actionlog"
	"github.com/open-kbs/ai-invoice/internal/actions"
	"github.com/open-kbs/ai-invoice/internal/ai"
	"github.com/open-kbs/ai-invoice/internal/config"
	"github.com/open-kbs/ai-invoice/internal/documents"
	"github.com/open-kbs/ai-invoice/internal/logging"
	"github.com/open-kbs/ai-invoice/internal/store"
	"github.com/open-kbs/ai-invoice/internal/store/postgres"
	"github.com/open-kbs/ai-invoice/internal/vault"
	"github.com/open-kbs/ai-invoice/internal/vies"
)

// app is everything one command invocation needs, built from the config.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	chart      *accounts.Service
	docs       *documents.Repository
	ai         *ai.Client
	dispatcher *actions.Dispatcher
	close      func()
}

// resolve makes p relative to the config file directory.
func resolve(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	st, closeStore, err := openStore(ctx, cfg, configPath, logger)
	if err != nil {
		return nil, err
	}

	var cipher vault.Cipher = vault.Plain{}
	if secret := cfg.Secret(); secret != "" {
		box, err := vault.NewSecretBox(secret)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("creating cipher: %w", err)
		}
		cipher = box
	} else {
		logger.Warn("no encryption secret set, storing documents in plain text",
			zap.String("env", cfg.Encryption.KeyEnv))
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		chart:  accounts.NewService(st, cipher, logger),
		docs:   documents.NewRepository(st, cipher, logger),
		close: func() {
			closeStore()
			_ = logger.Sync()
		},
	}

	deps := actions.Deps{
		Chart:     a.chart,
		Documents: a.docs,
		Companies: vies.NewClient("", nil),
		Limits: actions.Limits{
			ReportDocuments: cfg.Limits.ReportDocuments,
			ListDocuments:   cfg.Limits.ListDocuments,
		},
		Controls: cfg.Reports.Accounts,
		Logger:   logger,
	}
	if key := cfg.APIKey(); key != "" {
		var opts []option.RequestOption
		if cfg.AI.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.AI.BaseURL))
		}
		a.ai = ai.NewClient(key, cfg.AI.Model, opts...)
		deps.OCR = a.ai
	}
	if path := resolve(configPath, cfg.ActionLog.Path); path != "" {
		deps.Audit = actionlog.NewFile(path)
	}
	a.dispatcher = actions.New(deps)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, configPath string, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return store.NewMemory(), func() {}, nil
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := postgres.NewPool(ctx, cfg.StoreDSN())
		if err != nil {
			return nil, nil, err
		}
		pg := postgres.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, pool.Close, nil
	default:
		d, err := store.NewDir(resolve(configPath, cfg.Store.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		return d, func() {}, nil
	}
}

// requireAI fails when no OpenAI key is configured.
func (a *app) requireAI() error {
	if a.ai == nil {
		return fmt.Errorf("no OpenAI API key: set %s", a.cfg.AI.APIKeyEnv)
	}
	return nil
}
