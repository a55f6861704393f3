package quickbooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quickbooks/core"
)

var providerNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type tokenRequest struct {
	username string
	password string
	form     url.Values
}

func newTokenServer(t *testing.T, status int, body map[string]any) (*httptest.Server, *[]tokenRequest) {
	t.Helper()
	requests := []tokenRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		user, pass, _ := r.BasicAuth()
		requests = append(requests, tokenRequest{username: user, password: pass, form: r.PostForm})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestProvider(t *testing.T, tokenURL string) *Provider {
	t.Helper()
	provider, err := NewProvider(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenURL,
		Now:          func() time.Time { return providerNow },
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func TestNewProvider_RequiresClientCredentials(t *testing.T) {
	if _, err := NewProvider(Config{ClientSecret: "secret"}); err == nil {
		t.Fatalf("expected missing client id error")
	}
	if _, err := NewProvider(Config{ClientID: "id"}); err == nil {
		t.Fatalf("expected missing client secret error")
	}
}

func TestBeginAuth_BuildsAuthorizeURL(t *testing.T) {
	provider := newTestProvider(t, "")
	response, err := provider.BeginAuth(context.Background(), core.BeginAuthRequest{
		RedirectURI: "https://app.example/api/quickbooks/callback",
		State:       "state-1",
	})
	if err != nil {
		t.Fatalf("begin auth: %v", err)
	}
	parsed, err := url.Parse(response.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.HasPrefix(response.URL, core.DefaultAuthURL) {
		t.Fatalf("expected intuit authorize url, got %q", response.URL)
	}
	query := parsed.Query()
	expect := map[string]string{
		"client_id":     "client-id",
		"response_type": "code",
		"scope":         core.DefaultAccountingScope,
		"redirect_uri":  "https://app.example/api/quickbooks/callback",
		"state":         "state-1",
	}
	for key, value := range expect {
		if query.Get(key) != value {
			t.Fatalf("expected %s=%q, got %q", key, value, query.Get(key))
		}
	}
}

func TestBeginAuth_RequiresState(t *testing.T) {
	provider := newTestProvider(t, "")
	if _, err := provider.BeginAuth(context.Background(), core.BeginAuthRequest{RedirectURI: "https://app.example/cb"}); err == nil {
		t.Fatalf("expected missing state error")
	}
}

func TestCompleteAuth_ExchangesCodeWithBasicAuth(t *testing.T) {
	server, requests := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "AT1",
		"refresh_token": "RT1",
		"token_type":    "bearer",
		"expires_in":    3600,
	})
	provider := newTestProvider(t, server.URL)

	credential, err := provider.CompleteAuth(context.Background(), core.CompleteAuthRequest{
		Code:        "C",
		RealmID:     "999",
		RedirectURI: "https://app.example/api/quickbooks/callback",
	})
	if err != nil {
		t.Fatalf("complete auth: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one token request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.username != "client-id" || got.password != "client-secret" {
		t.Fatalf("expected basic auth client credentials, got %q/%q", got.username, got.password)
	}
	if got.form.Get("grant_type") != "authorization_code" || got.form.Get("code") != "C" {
		t.Fatalf("unexpected exchange form %v", got.form)
	}
	if got.form.Get("redirect_uri") != "https://app.example/api/quickbooks/callback" {
		t.Fatalf("expected redirect uri in form, got %v", got.form)
	}
	if got.form.Get("client_secret") != "" {
		t.Fatalf("expected client secret kept out of the form body")
	}
	if credential.AccessToken != "AT1" || credential.RefreshToken != "RT1" || credential.RealmID != "999" {
		t.Fatalf("unexpected credential %+v", credential)
	}
	if !credential.ExpiresAt.Equal(providerNow.Add(time.Hour)) {
		t.Fatalf("expected expiry now+3600s, got %s", credential.ExpiresAt)
	}
}

func TestCompleteAuth_TokenEndpointErrorIsExternal(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusBadRequest, map[string]any{
		"error":             "invalid_request",
		"error_description": "bad code",
	})
	provider := newTestProvider(t, server.URL)

	_, err := provider.CompleteAuth(context.Background(), core.CompleteAuthRequest{Code: "C", RealmID: "999"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %v", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.Metadata["error_code"] != "invalid_request" {
		t.Fatalf("expected error_code metadata, got %#v", rich.Metadata)
	}
}

func TestRefresh_SendsRefreshGrantAndRetainsRefreshToken(t *testing.T) {
	server, requests := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "AT2",
		"token_type":   "bearer",
		"expires_in":   1800,
	})
	provider := newTestProvider(t, server.URL)

	credential, err := provider.Refresh(context.Background(), core.Credential{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    providerNow.Add(-time.Minute),
		RealmID:      "999",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one refresh request, got %d", len(*requests))
	}
	form := (*requests)[0].form
	if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "RT1" {
		t.Fatalf("unexpected refresh form %v", form)
	}
	if credential.AccessToken != "AT2" || credential.RefreshToken != "RT1" || credential.RealmID != "999" {
		t.Fatalf("unexpected refreshed credential %+v", credential)
	}
	if !credential.ExpiresAt.Equal(providerNow.Add(30 * time.Minute)) {
		t.Fatalf("expected expiry now+1800s, got %s", credential.ExpiresAt)
	}
}

func TestRefresh_InvalidGrantIsAuthError(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	provider := newTestProvider(t, server.URL)

	_, err := provider.Refresh(context.Background(), core.Credential{RefreshToken: "RT1", RealmID: "999"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth envelope, got %v", err)
	}
}

func TestRefresh_RequiresRefreshToken(t *testing.T) {
	provider := newTestProvider(t, "http://127.0.0.1:0")
	if _, err := provider.Refresh(context.Background(), core.Credential{AccessToken: "AT1"}); err == nil {
		t.Fatalf("expected missing refresh token error")
	}
}
