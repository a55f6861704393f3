package query

import (
	"context"

	"github.com/goliatone/go-quickbooks/core"
)

type InvoiceReader interface {
	FetchInvoices(ctx context.Context, req core.FetchInvoicesRequest) (core.FetchInvoicesResult, error)
}

type FetchInvoicesQuery struct {
	reader InvoiceReader
}

func NewFetchInvoicesQuery(reader InvoiceReader) *FetchInvoicesQuery {
	return &FetchInvoicesQuery{reader: reader}
}

func (q *FetchInvoicesQuery) Query(ctx context.Context, msg FetchInvoicesMessage) (core.FetchInvoicesResult, error) {
	if q == nil || q.reader == nil {
		return core.FetchInvoicesResult{}, queryDependencyError("query: invoice reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.FetchInvoicesResult{}, err
	}
	return q.reader.FetchInvoices(ctx, msg.Request)
}

// LoadCredentialQuery reads the stored credential without refreshing it.
type LoadCredentialQuery struct{}

func NewLoadCredentialQuery() *LoadCredentialQuery {
	return &LoadCredentialQuery{}
}

func (q *LoadCredentialQuery) Query(ctx context.Context, msg LoadCredentialMessage) (core.Credential, error) {
	if err := msg.Validate(); err != nil {
		return core.Credential{}, err
	}
	return msg.Store.Get(ctx)
}
