package client

import (
	"context"
	"fmt"

	"github.com/goliatone/go-quickbooks/command"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/query"
)

// Session fetches invoices with whatever credential the store holds. The
// service refreshes and rewrites the store when the credential has expired.
type Session struct {
	Store   core.CredentialStore
	Service query.InvoiceReader
}

func NewSession(store core.CredentialStore, service query.InvoiceReader) *Session {
	return &Session{Store: store, Service: service}
}

func (s *Session) Invoices(ctx context.Context) ([]core.Invoice, error) {
	if s == nil || s.Store == nil || s.Service == nil {
		return nil, fmt.Errorf("client: session is not configured")
	}
	result, err := query.NewFetchInvoicesQuery(s.Service).Query(ctx, query.FetchInvoicesMessage{
		Request: core.FetchInvoicesRequest{Store: s.Store},
	})
	if err != nil {
		return nil, err
	}
	return result.Invoices, nil
}

func (s *Session) Logout(ctx context.Context) error {
	if s == nil || s.Store == nil {
		return fmt.Errorf("client: session is not configured")
	}
	return command.NewClearCredentialCommand().Execute(ctx, command.ClearCredentialMessage{Store: s.Store})
}
