package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-quickbooks/core"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// binding maps one environment variable onto a nested config key.
type binding struct {
	env   string
	path  []string
	parse func(string) (any, error)
}

var envBindings = []binding{
	{env: "QUICKBOOKS_CLIENT_ID", path: []string{"quickbooks", "client_id"}},
	{env: "QUICKBOOKS_CLIENT_SECRET", path: []string{"quickbooks", "client_secret"}},
	{env: "QUICKBOOKS_BASE_URL", path: []string{"base_url"}},
	{env: "QUICKBOOKS_ENVIRONMENT", path: []string{"quickbooks", "environment"}},
	{env: "QUICKBOOKS_SCOPES", path: []string{"quickbooks", "scopes"}, parse: parseList},
	{env: "QUICKBOOKS_AUTH_URL", path: []string{"quickbooks", "auth_url"}},
	{env: "QUICKBOOKS_TOKEN_URL", path: []string{"quickbooks", "token_url"}},
	{env: "QUICKBOOKS_API_BASE_URL", path: []string{"quickbooks", "api_base_url"}},
	{env: "QBCHAT_HTTP_ADDR", path: []string{"http", "addr"}},
	{env: "QBCHAT_HTTP_TIMEOUT", path: []string{"http", "timeout"}, parse: parseDuration},
	{env: "QBCHAT_LOG_LEVEL", path: []string{"logging", "level"}},
	{env: "QBCHAT_LOG_FORMAT", path: []string{"logging", "format"}},
	{env: "QBCHAT_STORE_DRIVER", path: []string{"store", "driver"}},
	{env: "QBCHAT_STORE_DSN", path: []string{"store", "dsn"}},
	{env: "QBCHAT_STORE_KEY", path: []string{"store", "key"}},
	{env: "QBCHAT_OAUTH_VERIFY_STATE", path: []string{"oauth", "verify_state"}, parse: parseBool},
}

// Loader reads an optional YAML file, then .env files, then the process
// environment. Later sources win.
type Loader struct {
	Path      string
	EnvFiles  []string
	LookupEnv func(string) (string, bool)
}

func NewLoader(path string, envFiles ...string) *Loader {
	return &Loader{Path: path, EnvFiles: envFiles, LookupEnv: os.LookupEnv}
}

func (l *Loader) LoadRaw(context.Context) (map[string]any, error) {
	raw := map[string]any{}
	if l == nil {
		return raw, nil
	}
	if path := strings.TrimSpace(l.Path); path != "" {
		fileValues, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		raw = fileValues
	}

	dotenv, err := readDotenv(l.EnvFiles)
	if err != nil {
		return nil, err
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, b := range envBindings {
		// a blank process value falls through to .env
		value, _ := lookup(b.env)
		if value = strings.TrimSpace(value); value == "" {
			value = strings.TrimSpace(dotenv[b.env])
		}
		if value == "" {
			continue
		}
		var parsed any = value
		if b.parse != nil {
			parsed, err = b.parse(value)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", b.env, err)
			}
		}
		setPath(raw, b.path, parsed)
	}
	return raw, nil
}

func readYAML(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	normalizeDurations(values)
	return values, nil
}

// readDotenv merges the given files, skipping the ones that do not exist.
func readDotenv(files []string) (map[string]string, error) {
	merged := map[string]string{}
	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		for key, value := range values {
			merged[key] = value
		}
	}
	return merged, nil
}

func setPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}

var durationKeys = map[string][]string{
	"http":  {"timeout"},
	"oauth": {"state_ttl"},
	"store": {"cache_ttl"},
}

// normalizeDurations turns "30s" style YAML strings into time.Duration.
func normalizeDurations(values map[string]any) {
	for section, keys := range durationKeys {
		nested, ok := values[section].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range keys {
			if text, ok := nested[key].(string); ok {
				if parsed, err := time.ParseDuration(strings.TrimSpace(text)); err == nil {
					nested[key] = parsed
				}
			}
		}
	}
}

func parseList(value string) (any, error) {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

func parseBool(value string) (any, error) {
	return strconv.ParseBool(value)
}

func parseDuration(value string) (any, error) {
	return time.ParseDuration(value)
}

var _ core.RawConfigLoader = (*Loader)(nil)
