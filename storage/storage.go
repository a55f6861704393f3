// Package storage opens the credential and OAuth state stores selected by
// core.Config.Store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-quickbooks/core"
	qbmigrations "github.com/goliatone/go-quickbooks/migrations"
	"github.com/goliatone/go-quickbooks/store/cached"
	redisstore "github.com/goliatone/go-quickbooks/store/redis"
	sqlstore "github.com/goliatone/go-quickbooks/store/sql"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const defaultPingTimeout = 5 * time.Second

// Stores bundles what a running process needs. Close releases the backing
// connection, if any.
type Stores struct {
	Driver     string
	Credential core.CredentialStore
	OAuthState core.OAuthStateStore

	closers []func() error
}

func (s *Stores) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open builds the stores for cfg.Store.Driver. SQL drivers run the embedded
// migrations before returning.
func Open(ctx context.Context, cfg core.Config, logger core.Logger) (*Stores, error) {
	logger = glog.Ensure(logger)
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if driver == "" {
		driver = core.StoreDriverMemory
	}
	slot := strings.TrimSpace(cfg.Store.Key)
	if slot == "" {
		slot = core.DefaultStorageKey
	}

	stores := &Stores{Driver: driver}
	switch driver {
	case core.StoreDriverMemory:
		stores.Credential = core.NewMemoryCredentialStore(nil)
		stores.OAuthState = core.NewMemoryOAuthStateStore(cfg.OAuth.StateTTL)
		return stores, nil
	case core.StoreDriverSQLite, core.StoreDriverPostgres:
		client, err := openPersistence(ctx, driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, client.Close)
		factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, slot)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		stores.Credential = factory.CredentialStore()
		stores.OAuthState = core.NewMemoryOAuthStateStore(cfg.OAuth.StateTTL)
	case core.StoreDriverRedis:
		client, err := redisstore.NewClient(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, client.Close)
		credential, err := redisstore.NewCredentialStore(client, slot)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		state, err := redisstore.NewOAuthStateStore(client, "", cfg.OAuth.StateTTL)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		stores.Credential = credential
		stores.OAuthState = state
	default:
		return nil, fmt.Errorf("storage: unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.CacheTTL > 0 {
		wrapped, err := withCache(stores.Credential, slot, cfg.Store.CacheTTL)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		stores.Credential = wrapped
	}
	logger.Info("credential store opened", "driver", driver, "slot", slot, "cache_ttl", cfg.Store.CacheTTL.String())
	return stores, nil
}

func withCache(base core.CredentialStore, slot string, ttl time.Duration) (core.CredentialStore, error) {
	config := repositorycache.DefaultConfig()
	config.TTL = ttl
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("storage: credential cache: %w", err)
	}
	return cached.NewCredentialStore(base, service, slot)
}

type persistenceConfig struct {
	driver string
	server string
}

func (c persistenceConfig) GetDebug() bool { return false }
func (c persistenceConfig) GetDriver() string { return c.driver }
func (c persistenceConfig) GetServer() string { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return defaultPingTimeout }
func (c persistenceConfig) GetOtelIdentifier() string { return "go-quickbooks" }

func openPersistence(ctx context.Context, driver, dsn string) (*persistence.Client, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("storage: store.dsn is required for driver %q", driver)
	}

	var (
		sqlDriver string
		dialect   schema.Dialect
		target    string
	)
	switch driver {
	case core.StoreDriverSQLite:
		sqlDriver, dialect, target = "sqlite3", sqlitedialect.New(), qbmigrations.DialectSQLite
	default:
		sqlDriver, dialect, target = "postgres", pgdialect.New(), qbmigrations.DialectPostgres
	}

	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", driver, err)
	}
	if driver == core.StoreDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	client, err := persistence.New(persistenceConfig{driver: sqlDriver, server: dsn}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage: persistence client: %w", err)
	}

	_, err = qbmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != target {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, target)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: migrate %s: %w", driver, err)
	}
	return client, nil
}
