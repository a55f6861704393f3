package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-quickbooks/core"
)

var (
	_ gocmd.Querier[FetchInvoicesMessage, core.FetchInvoicesResult] = (*FetchInvoicesQuery)(nil)
	_ gocmd.Querier[LoadCredentialMessage, core.Credential]         = (*LoadCredentialQuery)(nil)
)
