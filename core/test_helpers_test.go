package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testConfig() Config {
	return Config{
		BaseURL: "https://app.example",
		QuickBooks: QuickBooksConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		},
	}
}

type fakeProvider struct {
	mu sync.Mutex

	exchange    Credential
	exchangeErr error
	refresh     Credential
	refreshErr  error

	beginCalls    []BeginAuthRequest
	exchangeCalls []CompleteAuthRequest
	refreshCalls  []Credential
}

func (p *fakeProvider) ID() string { return "quickbooks" }

func (p *fakeProvider) BeginAuth(_ context.Context, req BeginAuthRequest) (BeginAuthResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beginCalls = append(p.beginCalls, req)
	return BeginAuthResponse{
		URL:   "https://appcenter.example/connect?state=" + req.State,
		State: req.State,
	}, nil
}

func (p *fakeProvider) CompleteAuth(_ context.Context, req CompleteAuthRequest) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchangeCalls = append(p.exchangeCalls, req)
	if p.exchangeErr != nil {
		return Credential{}, p.exchangeErr
	}
	return p.exchange, nil
}

func (p *fakeProvider) Refresh(_ context.Context, cred Credential) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCalls = append(p.refreshCalls, cred)
	if p.refreshErr != nil {
		return Credential{}, p.refreshErr
	}
	return p.refresh, nil
}

func (p *fakeProvider) networkCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exchangeCalls) + len(p.refreshCalls)
}

type fakeInvoiceSource struct {
	mu       sync.Mutex
	invoices []Invoice
	err      error
	tokens   []string
}

func (s *fakeInvoiceSource) ListInvoices(_ context.Context, cred Credential) ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, cred.AccessToken)
	if s.err != nil {
		return nil, s.err
	}
	return append([]Invoice(nil), s.invoices...), nil
}

type failingCredentialStore struct {
	err error
}

func (s failingCredentialStore) Get(context.Context) (Credential, error) {
	return Credential{}, s.err
}

func (s failingCredentialStore) Put(context.Context, Credential) error { return s.err }

func (s failingCredentialStore) Clear(context.Context) error { return s.err }

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}

func (l stubLogger) WithContext(context.Context) Logger { return l }

type stubLoggerProvider struct {
	logger Logger
}

func (p stubLoggerProvider) GetLogger(string) Logger {
	return p.logger
}

func newTestService(provider *fakeProvider, source *fakeInvoiceSource, opts ...Option) (*Service, error) {
	base := []Option{WithProvider(provider), WithClock(testClock)}
	if source != nil {
		base = append(base, WithInvoiceSource(source))
	}
	svc, err := NewService(testConfig(), append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}
	return svc, nil
}
