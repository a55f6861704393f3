package quickbooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quickbooks/core"
	"golang.org/x/oauth2"
)

const (
	ProviderID = "quickbooks"

	defaultTokenRequestTimeout = 30 * time.Second
	defaultTokenTTL            = time.Hour
)

type Config struct {
	ClientID            string
	ClientSecret        string
	AuthURL             string
	TokenURL            string
	Scopes              []string
	TokenTTL            time.Duration
	TokenRequestTimeout time.Duration
	Now                 func() time.Time
	// HTTPClient is handed to golang.org/x/oauth2 for token requests.
	HTTPClient *http.Client
}

// Provider runs the QuickBooks authorization-code and refresh-token grants.
// Client credentials are sent with HTTP Basic authentication.
type Provider struct {
	cfg        Config
	httpClient *http.Client
}

func NewProvider(cfg Config) (*Provider, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("quickbooks: client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("quickbooks: client secret is required")
	}
	cfg.AuthURL = strings.TrimSpace(cfg.AuthURL)
	if cfg.AuthURL == "" {
		cfg.AuthURL = core.DefaultAuthURL
	}
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		cfg.TokenURL = core.DefaultTokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{core.DefaultAccountingScope}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.TokenRequestTimeout <= 0 {
		cfg.TokenRequestTimeout = defaultTokenRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time {
			return time.Now().UTC()
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TokenRequestTimeout}
	}
	return &Provider{cfg: cfg, httpClient: httpClient}, nil
}

func (p *Provider) ID() string {
	return ProviderID
}

func (p *Provider) BeginAuth(_ context.Context, req core.BeginAuthRequest) (core.BeginAuthResponse, error) {
	if p == nil {
		return core.BeginAuthResponse{}, fmt.Errorf("quickbooks: provider is nil")
	}
	state := strings.TrimSpace(req.State)
	if state == "" {
		return core.BeginAuthResponse{}, fmt.Errorf("quickbooks: oauth state is required")
	}
	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		return core.BeginAuthResponse{}, fmt.Errorf("quickbooks: redirect uri is required")
	}
	oauthCfg := p.oauthConfig(redirectURI, req.Scopes)
	return core.BeginAuthResponse{
		URL:   oauthCfg.AuthCodeURL(state),
		State: state,
	}, nil
}

func (p *Provider) CompleteAuth(ctx context.Context, req core.CompleteAuthRequest) (core.Credential, error) {
	if p == nil {
		return core.Credential{}, fmt.Errorf("quickbooks: provider is nil")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return core.Credential{}, fmt.Errorf("quickbooks: authorization code is required")
	}
	oauthCfg := p.oauthConfig(strings.TrimSpace(req.RedirectURI), nil)
	token, err := oauthCfg.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return core.Credential{}, tokenEndpointError("exchange", err)
	}
	credential, err := p.credentialFromToken(token)
	if err != nil {
		return core.Credential{}, err
	}
	credential.RealmID = strings.TrimSpace(req.RealmID)
	return credential, nil
}

// Refresh always hits the token endpoint: the caller has already decided the
// credential is expired, so the token source is seeded without an access
// token to bypass its own expiry check.
func (p *Provider) Refresh(ctx context.Context, cred core.Credential) (core.Credential, error) {
	if p == nil {
		return core.Credential{}, fmt.Errorf("quickbooks: provider is nil")
	}
	refreshToken := strings.TrimSpace(cred.RefreshToken)
	if refreshToken == "" {
		return core.Credential{}, fmt.Errorf("quickbooks: refresh token is required")
	}
	oauthCfg := p.oauthConfig("", nil)
	token, err := oauthCfg.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return core.Credential{}, tokenEndpointError("refresh", err)
	}
	credential, err := p.credentialFromToken(token)
	if err != nil {
		return core.Credential{}, err
	}
	if credential.RefreshToken == "" {
		credential.RefreshToken = refreshToken
	}
	credential.RealmID = cred.RealmID
	return credential, nil
}

func (p *Provider) oauthConfig(redirectURI string, scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = p.cfg.Scopes
	}
	return &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.cfg.AuthURL,
			TokenURL:  p.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: redirectURI,
		Scopes:      append([]string(nil), scopes...),
	}
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// credentialFromToken computes ExpiresAt from expires_in against the provider
// clock, falling back to the token expiry and then to TokenTTL.
func (p *Provider) credentialFromToken(token *oauth2.Token) (core.Credential, error) {
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return core.Credential{}, fmt.Errorf("quickbooks: token response missing access token")
	}
	now := p.cfg.Now().UTC()
	expiresAt := now.Add(p.cfg.TokenTTL)
	if seconds, ok := expiresInSeconds(token.Extra("expires_in")); ok {
		expiresAt = now.Add(time.Duration(seconds) * time.Second)
	} else if !token.Expiry.IsZero() {
		expiresAt = token.Expiry.UTC()
	}
	return core.Credential{
		AccessToken:  strings.TrimSpace(token.AccessToken),
		RefreshToken: strings.TrimSpace(token.RefreshToken),
		ExpiresAt:    expiresAt,
	}, nil
}

func expiresInSeconds(raw any) (int64, bool) {
	switch value := raw.(type) {
	case float64:
		return int64(value), value > 0
	case int64:
		return value, value > 0
	case int:
		return int64(value), value > 0
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, parsed > 0
	default:
		return 0, false
	}
}

func tokenEndpointError(operation string, err error) error {
	metadata := map[string]any{"provider_id": ProviderID, "operation": operation}
	category := goerrors.CategoryExternal
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			metadata["status_code"] = retrieveErr.Response.StatusCode
		}
		if code := strings.TrimSpace(retrieveErr.ErrorCode); code != "" {
			metadata["error_code"] = code
			if code == "invalid_grant" {
				category = goerrors.CategoryAuth
			}
		}
		if description := strings.TrimSpace(retrieveErr.ErrorDescription); description != "" {
			metadata["error_description"] = description
		}
	}
	return goerrors.Wrap(err, category, "quickbooks: token "+operation+" failed").
		WithCode(http.StatusBadGateway).
		WithMetadata(metadata)
}

var _ core.Provider = (*Provider)(nil)
