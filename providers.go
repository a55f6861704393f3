package quickbooks

import (
	"github.com/goliatone/go-quickbooks/core"
	qbprovider "github.com/goliatone/go-quickbooks/providers/quickbooks"
)

func NewProvider(cfg Config) (*qbprovider.Provider, error) {
	return newProvider(cfg, nil)
}

// NewInvoiceClient targets the sandbox or production accounting API according
// to cfg.QuickBooks.Environment unless an explicit base URL is set.
func NewInvoiceClient(cfg Config) (*qbprovider.InvoiceClient, error) {
	return newInvoiceClient(cfg, nil)
}

// newProvider stamps credential expiry with now.
func newProvider(cfg Config, now core.Clock) (*qbprovider.Provider, error) {
	return qbprovider.NewProvider(qbprovider.Config{
		ClientID:            cfg.QuickBooks.ClientID,
		ClientSecret:        cfg.QuickBooks.ClientSecret,
		AuthURL:             cfg.QuickBooks.AuthURL,
		TokenURL:            cfg.QuickBooks.TokenURL,
		Scopes:              append([]string(nil), cfg.QuickBooks.Scopes...),
		TokenRequestTimeout: cfg.HTTP.Timeout,
		Now:                 now,
	})
}

func newInvoiceClient(cfg Config, now core.Clock) (*qbprovider.InvoiceClient, error) {
	return qbprovider.NewInvoiceClient(qbprovider.InvoiceClientConfig{
		APIBaseURL: cfg.APIBaseURL(),
		Timeout:    cfg.HTTP.Timeout,
		Now:        now,
	})
}

var (
	_ core.Provider      = (*qbprovider.Provider)(nil)
	_ core.InvoiceSource = (*qbprovider.InvoiceClient)(nil)
)
