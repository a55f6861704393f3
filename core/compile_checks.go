package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ IntegrationService = (*Service)(nil)
	_ CredentialStore    = (*MemoryCredentialStore)(nil)
	_ OAuthStateStore    = (*MemoryOAuthStateStore)(nil)
	_ CredentialCodec    = JSONCredentialCodec{}
	_ Signer             = BearerTokenSigner{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
