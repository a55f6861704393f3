package core

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(testConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.LoggerProvider == nil {
		t.Fatalf("expected default logger provider")
	}
	if deps.ErrorFactory == nil || deps.ErrorMapper == nil {
		t.Fatalf("expected default error factory and mapper")
	}
	if deps.ConfigProvider == nil || deps.OptionsResolver == nil {
		t.Fatalf("expected default config provider and options resolver")
	}
	if deps.CredentialStore == nil {
		t.Fatalf("expected default memory credential store")
	}
	if deps.OAuthStateStore == nil {
		t.Fatalf("expected default oauth state store")
	}
	cfg := svc.Config()
	if cfg.ServiceName != "quickbooks" {
		t.Fatalf("expected default service_name=quickbooks, got %q", cfg.ServiceName)
	}
	if cfg.QuickBooks.AuthURL != DefaultAuthURL || cfg.QuickBooks.TokenURL != DefaultTokenURL {
		t.Fatalf("expected default provider endpoints, got %+v", cfg.QuickBooks)
	}
	if cfg.OAuth.CallbackPath != DefaultCallbackPath {
		t.Fatalf("expected default callback path, got %q", cfg.OAuth.CallbackPath)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Fatalf("expected default http timeout, got %s", cfg.HTTP.Timeout)
	}
}

func TestNewService_WithXOverrides(t *testing.T) {
	customLogger := stubLogger{}
	customProvider := stubLoggerProvider{logger: customLogger}
	customFactory := func(message string, category ...goerrors.Category) *goerrors.Error {
		return goerrors.New("custom:"+message, category...)
	}
	sentinel := errors.New("sentinel")
	customMapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	resolved := testConfig()
	resolved.ServiceName = "resolved"
	configProvider := &fixedConfigProvider{cfg: testConfig()}
	optionsResolver := &fixedOptionsResolver{cfg: resolved}
	store := NewMemoryCredentialStore(nil)
	provider := &fakeProvider{}

	svc, err := NewService(testConfig(),
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithErrorFactory(customFactory),
		WithErrorMapper(customMapper),
		WithConfigProvider(configProvider),
		WithOptionsResolver(optionsResolver),
		WithCredentialStore(store),
		WithProvider(provider),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	deps := svc.Dependencies()
	if deps.Logger != customLogger {
		t.Fatalf("expected custom logger override")
	}
	if resolvedLogger := deps.LoggerProvider.GetLogger("quickbooks.override"); resolvedLogger != customLogger {
		t.Fatalf("expected logger provider to resolve custom logger")
	}
	if deps.ConfigProvider != configProvider {
		t.Fatalf("expected custom config provider override")
	}
	if deps.OptionsResolver != optionsResolver {
		t.Fatalf("expected custom options resolver override")
	}
	if deps.CredentialStore != store {
		t.Fatalf("expected custom credential store override")
	}
	if deps.Provider != provider {
		t.Fatalf("expected custom provider override")
	}
	if got := svc.Config().ServiceName; got != "resolved" {
		t.Fatalf("expected options resolver output config, got %q", got)
	}
}

func TestNewService_ConfigLayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticRawConfigLoader{Values: map[string]any{
		"service_name": "from-config",
		"base_url":     "https://config.example",
		"quickbooks": map[string]any{
			"client_id":     "config-client",
			"client_secret": "config-secret",
			"environment":   "sandbox",
		},
	}})

	runtime := Config{ServiceName: "from-runtime", QuickBooks: QuickBooksConfig{ClientID: "runtime-client"}}
	svc, err := NewService(runtime, WithConfigProvider(provider))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := svc.Config()
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime value to override config/default, got %q", cfg.ServiceName)
	}
	if cfg.QuickBooks.ClientID != "runtime-client" {
		t.Fatalf("expected runtime client id, got %q", cfg.QuickBooks.ClientID)
	}
	if cfg.QuickBooks.ClientSecret != "config-secret" {
		t.Fatalf("expected config layer client secret, got %q", cfg.QuickBooks.ClientSecret)
	}
	if cfg.APIBaseURL() != DefaultSandboxAPIBase {
		t.Fatalf("expected sandbox api base, got %q", cfg.APIBaseURL())
	}
	if cfg.RedirectURI() != "https://config.example/api/quickbooks/callback" {
		t.Fatalf("unexpected redirect uri %q", cfg.RedirectURI())
	}
}

func TestNewService_RejectsMissingClientCredentials(t *testing.T) {
	missingID := testConfig()
	missingID.QuickBooks.ClientID = ""
	missingSecret := testConfig()
	missingSecret.QuickBooks.ClientSecret = ""
	missingBase := testConfig()
	missingBase.BaseURL = ""

	for name, cfg := range map[string]Config{
		"client id":     missingID,
		"client secret": missingSecret,
		"base url":      missingBase,
	} {
		_, err := NewService(cfg)
		if err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
		if !HasTextCode(err, ServiceErrorConfigInvalid) {
			t.Fatalf("%s: expected config invalid text code, got %v", name, err)
		}
	}
}

func TestConfigValidate_RejectsUnknownEnvironmentAndDriver(t *testing.T) {
	cfg := testConfig()
	cfg.QuickBooks.Environment = "staging"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid environment error")
	}
	cfg = testConfig()
	cfg.Store.Driver = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid store driver error")
	}
}

func TestClockFromOptions_ReturnsInjectedClock(t *testing.T) {
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := ClockFromOptions(WithLogger(nil), nil, WithClock(func() time.Time { return fixed }))
	if got := clock(); !got.Equal(fixed) {
		t.Fatalf("expected injected clock, got %s", got)
	}
	if ClockFromOptions() == nil {
		t.Fatalf("expected system clock fallback")
	}
}
