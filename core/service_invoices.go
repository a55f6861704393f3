package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// FetchInvoices makes sure the credential is fresh and then runs one invoice
// query against the connected company.
func (s *Service) FetchInvoices(ctx context.Context, req FetchInvoicesRequest) (result FetchInvoicesResult, err error) {
	startedAt := time.Now().UTC()
	fields := s.baseFields()
	defer func() {
		fields["invoice_count"] = len(result.Invoices)
		s.observeOperation(ctx, startedAt, "fetch_invoices", err, fields)
	}()

	store := s.resolveStore(req.Store)
	var credential Credential
	if req.Credential != nil {
		credential = *req.Credential
	} else {
		credential, err = s.loadCredential(ctx, store)
		if err != nil {
			return FetchInvoicesResult{}, err
		}
	}
	fields["realm_id"] = credential.RealmID
	if err = credential.Validate(); err != nil {
		err = s.mapError(err)
		return FetchInvoicesResult{}, err
	}
	if s.invoiceSource == nil {
		err = s.mapError(fmt.Errorf("core: invoice source is not configured"))
		return FetchInvoicesResult{}, err
	}

	fresh, err := s.EnsureCredentialFresh(ctx, EnsureCredentialFreshRequest{
		Credential: credential,
		Store:      store,
	})
	if err != nil {
		return FetchInvoicesResult{}, err
	}

	invoices, err := s.invoiceSource.ListInvoices(ctx, fresh.Credential)
	if err != nil {
		err = wrapServiceError(err, goerrors.CategoryExternal, ServiceErrorQueryFailed, "core: quickbooks invoice query failed")
		return FetchInvoicesResult{}, err
	}
	if invoices == nil {
		invoices = []Invoice{}
	}

	return FetchInvoicesResult{
		Invoices:   invoices,
		Credential: fresh.Credential,
		Refreshed:  fresh.Refreshed,
	}, nil
}

func (s *Service) loadCredential(ctx context.Context, store CredentialStore) (Credential, error) {
	if store == nil {
		return Credential{}, s.mapError(fmt.Errorf("core: credential store is not configured"))
	}
	credential, err := store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) || errors.Is(err, ErrCredentialMalformed) {
			s.logWarn(ctx, "no usable stored credential", map[string]any{"reason": err.Error()})
			return Credential{}, s.mapError(ErrNotConnected)
		}
		return Credential{}, s.mapError(err)
	}
	return credential, nil
}
