package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-quickbooks/core"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoader_EnvironmentBindings(t *testing.T) {
	loader := &Loader{LookupEnv: envFrom(map[string]string{
		"QUICKBOOKS_CLIENT_ID":      "client-id",
		"QUICKBOOKS_CLIENT_SECRET":  "client-secret",
		"QUICKBOOKS_BASE_URL":       "https://app.example",
		"QUICKBOOKS_ENVIRONMENT":    "sandbox",
		"QUICKBOOKS_SCOPES":         "com.intuit.quickbooks.accounting, openid",
		"QBCHAT_OAUTH_VERIFY_STATE": "true",
		"QBCHAT_HTTP_TIMEOUT":       "5s",
		"QBCHAT_STORE_DRIVER":       "sqlite",
	})}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	qb := raw["quickbooks"].(map[string]any)
	if qb["client_id"] != "client-id" || qb["environment"] != "sandbox" {
		t.Fatalf("unexpected quickbooks section %#v", qb)
	}
	scopes := qb["scopes"].([]string)
	if len(scopes) != 2 || scopes[1] != "openid" {
		t.Fatalf("unexpected scopes %#v", scopes)
	}
	if raw["oauth"].(map[string]any)["verify_state"] != true {
		t.Fatalf("expected verify_state bool")
	}
	if raw["http"].(map[string]any)["timeout"] != 5*time.Second {
		t.Fatalf("expected parsed duration, got %#v", raw["http"])
	}
}

func TestLoader_PrecedenceFileThenDotenvThenEnv(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", `
base_url: https://file.example
quickbooks:
  client_id: file-id
  client_secret: file-secret
http:
  timeout: 10s
`)
	envPath := writeFile(t, dir, ".env", "QUICKBOOKS_CLIENT_ID=dotenv-id\nQBCHAT_STORE_DRIVER=redis\n")
	loader := &Loader{
		Path:      yamlPath,
		EnvFiles:  []string{envPath, filepath.Join(dir, "missing.env")},
		LookupEnv: envFrom(map[string]string{"QBCHAT_STORE_DRIVER": "sqlite"}),
	}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	qb := raw["quickbooks"].(map[string]any)
	if qb["client_id"] != "dotenv-id" {
		t.Fatalf("expected .env to override file, got %#v", qb["client_id"])
	}
	if qb["client_secret"] != "file-secret" {
		t.Fatalf("expected file value kept, got %#v", qb["client_secret"])
	}
	if raw["store"].(map[string]any)["driver"] != "sqlite" {
		t.Fatalf("expected environment to override .env")
	}
	if raw["http"].(map[string]any)["timeout"] != 10*time.Second {
		t.Fatalf("expected yaml duration normalized, got %#v", raw["http"])
	}
}

func TestLoader_BlankEnvironmentFallsBackToDotenv(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "QUICKBOOKS_CLIENT_ID=dotenv-id\nQBCHAT_STORE_DRIVER=redis\n")
	loader := &Loader{
		EnvFiles: []string{envPath},
		LookupEnv: envFrom(map[string]string{
			"QUICKBOOKS_CLIENT_ID": "",
			"QBCHAT_STORE_DRIVER":  "   ",
		}),
	}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if got := raw["quickbooks"].(map[string]any)["client_id"]; got != "dotenv-id" {
		t.Fatalf("expected .env value for blank variable, got %#v", got)
	}
	if got := raw["store"].(map[string]any)["driver"]; got != "redis" {
		t.Fatalf("expected .env value for whitespace variable, got %#v", got)
	}
}

func TestLoader_FeedsCfgxProvider(t *testing.T) {
	loader := &Loader{LookupEnv: envFrom(map[string]string{
		"QUICKBOOKS_CLIENT_ID":     "client-id",
		"QUICKBOOKS_CLIENT_SECRET": "client-secret",
		"QUICKBOOKS_BASE_URL":      "https://app.example",
		"QBCHAT_STORE_KEY":         "team_slot",
	})}
	cfg, err := core.NewCfgxConfigProvider(loader).Load(context.Background(), core.DefaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.QuickBooks.ClientID != "client-id" || cfg.BaseURL != "https://app.example" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Store.Key != "team_slot" {
		t.Fatalf("expected store key from env, got %q", cfg.Store.Key)
	}
	if cfg.HTTP.Addr != ":3000" {
		t.Fatalf("expected default addr, got %q", cfg.HTTP.Addr)
	}
}

func TestLoader_RejectsBadValues(t *testing.T) {
	loader := &Loader{LookupEnv: envFrom(map[string]string{"QBCHAT_OAUTH_VERIFY_STATE": "maybe"})}
	if _, err := loader.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected invalid bool error")
	}
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "quickbooks: [unterminated")
	if _, err := (&Loader{Path: bad, LookupEnv: envFrom(nil)}).LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected yaml parse error")
	}
	if _, err := (&Loader{Path: filepath.Join(dir, "absent.yaml"), LookupEnv: envFrom(nil)}).LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected missing explicit file error")
	}
}
