package sqlstore

import "github.com/goliatone/go-quickbooks/core"

var _ core.CredentialStore = (*CredentialStore)(nil)
