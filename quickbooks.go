// Package quickbooks wires the QuickBooks OAuth2 token lifecycle and invoice
// query into a single service.
package quickbooks

import (
	"github.com/goliatone/go-quickbooks/core"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Credential = core.Credential

type Invoice = core.Invoice

type CredentialStore = core.CredentialStore

type OAuthStateStore = core.OAuthStateStore

type ConnectRequest = core.ConnectRequest

type CallbackRequest = core.CallbackRequest

type FetchInvoicesRequest = core.FetchInvoicesRequest

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithOAuthStateStore = core.WithOAuthStateStore
	WithProvider        = core.WithProvider
	WithInvoiceSource   = core.WithInvoiceSource
	WithCredentialStore = core.WithCredentialStore
	WithCredentialCodec = core.WithCredentialCodec
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// New resolves cfg over the defaults, builds the QuickBooks provider and
// invoice client from it and returns the service. Options given by the caller
// are applied last, so WithProvider or WithInvoiceSource replace the built
// ones. A WithClock option also drives token expiry and invoice status.
func New(cfg Config, opts ...Option) (*Service, error) {
	resolved, err := core.GoOptionsResolver{}.Resolve(core.DefaultConfig(), Config{}, cfg)
	if err != nil {
		return nil, err
	}
	clock := core.ClockFromOptions(opts...)
	provider, err := newProvider(resolved, clock)
	if err != nil {
		return nil, err
	}
	invoices, err := newInvoiceClient(resolved, clock)
	if err != nil {
		return nil, err
	}
	base := []Option{
		core.WithProvider(provider),
		core.WithInvoiceSource(invoices),
	}
	return core.NewService(resolved, append(base, opts...)...)
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
