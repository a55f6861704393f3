package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	EnvironmentProduction = "production"
	EnvironmentSandbox    = "sandbox"

	DefaultAuthURL           = "https://appcenter.intuit.com/connect/oauth2"
	DefaultTokenURL          = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	DefaultProductionAPIBase = "https://quickbooks.api.intuit.com"
	DefaultSandboxAPIBase    = "https://sandbox-quickbooks.api.intuit.com"
	DefaultAccountingScope   = "com.intuit.quickbooks.accounting"

	DefaultCallbackPath = "/api/quickbooks/callback"
	DefaultLandingPath  = "/"
	DefaultStorageKey   = "quickbooks_auth"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

type QuickBooksConfig struct {
	ClientID     string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string   `koanf:"client_secret" mapstructure:"client_secret"`
	Environment  string   `koanf:"environment" mapstructure:"environment"`
	Scopes       []string `koanf:"scopes" mapstructure:"scopes"`
	AuthURL      string   `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL     string   `koanf:"token_url" mapstructure:"token_url"`
	APIBaseURL   string   `koanf:"api_base_url" mapstructure:"api_base_url"`
}

type OAuthConfig struct {
	VerifyState  bool          `koanf:"verify_state" mapstructure:"verify_state"`
	StateTTL     time.Duration `koanf:"state_ttl" mapstructure:"state_ttl"`
	CallbackPath string        `koanf:"callback_path" mapstructure:"callback_path"`
	LandingPath  string        `koanf:"landing_path" mapstructure:"landing_path"`
}

type HTTPConfig struct {
	Addr    string        `koanf:"addr" mapstructure:"addr"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type StoreConfig struct {
	Driver   string        `koanf:"driver" mapstructure:"driver"`
	DSN      string        `koanf:"dsn" mapstructure:"dsn"`
	Key      string        `koanf:"key" mapstructure:"key"`
	CacheTTL time.Duration `koanf:"cache_ttl" mapstructure:"cache_ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" mapstructure:"level"`
	Format string `koanf:"format" mapstructure:"format"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	BaseURL     string           `koanf:"base_url" mapstructure:"base_url"`
	QuickBooks  QuickBooksConfig `koanf:"quickbooks" mapstructure:"quickbooks"`
	OAuth       OAuthConfig      `koanf:"oauth" mapstructure:"oauth"`
	HTTP        HTTPConfig       `koanf:"http" mapstructure:"http"`
	Store       StoreConfig      `koanf:"store" mapstructure:"store"`
	Logging     LoggingConfig    `koanf:"logging" mapstructure:"logging"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "quickbooks",
		QuickBooks: QuickBooksConfig{
			Environment: EnvironmentProduction,
			Scopes:      []string{DefaultAccountingScope},
			AuthURL:     DefaultAuthURL,
			TokenURL:    DefaultTokenURL,
		},
		OAuth: OAuthConfig{
			StateTTL:     defaultOAuthStateTTL,
			CallbackPath: DefaultCallbackPath,
			LandingPath:  DefaultLandingPath,
		},
		HTTP: HTTPConfig{
			Addr:    ":3000",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:   StoreDriverMemory,
			Key:      DefaultStorageKey,
			CacheTTL: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.QuickBooks.ClientID) == "" {
		return fmt.Errorf("core: quickbooks.client_id is required")
	}
	if strings.TrimSpace(c.QuickBooks.ClientSecret) == "" {
		return fmt.Errorf("core: quickbooks.client_secret is required")
	}
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return fmt.Errorf("core: base_url is required")
	}
	if parsed, err := url.Parse(base); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: base_url %q is invalid", base)
	}
	switch strings.ToLower(strings.TrimSpace(c.QuickBooks.Environment)) {
	case "", EnvironmentProduction, EnvironmentSandbox:
	default:
		return fmt.Errorf("core: quickbooks.environment %q is invalid", c.QuickBooks.Environment)
	}
	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case "", StoreDriverMemory, StoreDriverSQLite, StoreDriverPostgres, StoreDriverRedis:
	default:
		return fmt.Errorf("core: store.driver %q is invalid", c.Store.Driver)
	}
	return nil
}

// RedirectURI is the callback address registered with the provider. The same
// value is sent when the flow begins and when the code is exchanged.
func (c Config) RedirectURI() string {
	path := strings.TrimSpace(c.OAuth.CallbackPath)
	if path == "" {
		path = DefaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/") + path
}

func (c Config) APIBaseURL() string {
	if explicit := strings.TrimSpace(c.QuickBooks.APIBaseURL); explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	if strings.EqualFold(strings.TrimSpace(c.QuickBooks.Environment), EnvironmentSandbox) {
		return DefaultSandboxAPIBase
	}
	return DefaultProductionAPIBase
}

func (c Config) LandingPath() string {
	path := strings.TrimSpace(c.OAuth.LandingPath)
	if path == "" {
		return DefaultLandingPath
	}
	return path
}
