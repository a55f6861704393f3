package main

import (
	"context"
	"fmt"
	"io"
	"os"

	quickbooks "github.com/goliatone/go-quickbooks"
	"github.com/goliatone/go-quickbooks/config"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/logging"
	"github.com/goliatone/go-quickbooks/storage"
)

type Globals struct {
	Config   string   `help:"Optional YAML config file." type:"path" env:"QBCHAT_CONFIG"`
	EnvFile  []string `help:"Dotenv files read before the environment." default:".env" name:"env-file"`
	LogLevel string   `help:"Override the configured log level." name:"log-level"`

	out io.Writer
}

// deps is shared by every subcommand. Close releases the stores.
type deps struct {
	cfg     core.Config
	logger  *logging.Logger
	stores  *storage.Stores
	service *quickbooks.Service
}

func (g *Globals) stdout() io.Writer {
	if g.out != nil {
		return g.out
	}
	return os.Stdout
}

func (g *Globals) loadConfig(ctx context.Context) (core.Config, error) {
	loader := config.NewLoader(g.Config, g.EnvFile...)
	cfg, err := core.NewCfgxConfigProvider(loader).Load(ctx, core.DefaultConfig())
	if err != nil {
		return core.Config{}, fmt.Errorf("qbchat: load config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	return cfg, nil
}

func (g *Globals) open(ctx context.Context) (*deps, error) {
	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	stores, err := storage.Open(ctx, cfg, logger.Named("storage"))
	if err != nil {
		return nil, err
	}
	service, err := quickbooks.New(cfg,
		quickbooks.WithLoggerProvider(logging.NewProvider(logger)),
		quickbooks.WithCredentialStore(stores.Credential),
		quickbooks.WithOAuthStateStore(stores.OAuthState),
	)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	return &deps{
		cfg:     service.Config(),
		logger:  logger,
		stores:  stores,
		service: service,
	}, nil
}

func (r *deps) Close() error {
	if r == nil {
		return nil
	}
	return r.stores.Close()
}
