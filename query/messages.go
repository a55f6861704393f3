package query

import (
	"github.com/goliatone/go-quickbooks/core"
)

const (
	TypeFetchInvoices  = "quickbooks.query.invoices.fetch"
	TypeLoadCredential = "quickbooks.query.credential.load"
)

type FetchInvoicesMessage struct {
	Request core.FetchInvoicesRequest
}

func (FetchInvoicesMessage) Type() string { return TypeFetchInvoices }

func (m FetchInvoicesMessage) Validate() error {
	if m.Request.Credential == nil && m.Request.Store == nil {
		return queryValidationError("credential", "credential or store is required")
	}
	if m.Request.Credential != nil {
		return queryWrapValidation(m.Request.Credential.Validate(), "query: credential is invalid")
	}
	return nil
}

type LoadCredentialMessage struct {
	Store core.CredentialStore
}

func (LoadCredentialMessage) Type() string { return TypeLoadCredential }

func (m LoadCredentialMessage) Validate() error {
	if m.Store == nil {
		return queryInvalidInputError("query: credential store is required")
	}
	return nil
}
