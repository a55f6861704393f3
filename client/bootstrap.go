package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-quickbooks/command"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/query"
)

const (
	SourceNone  = ""
	SourceURL   = "url"
	SourceStore = "store"
)

type BootstrapResult struct {
	Credential core.Credential
	// Source is SourceURL, SourceStore or SourceNone when nothing usable was found.
	Source string
	// URL is the landing URL, with the auth parameter removed when it was adopted.
	URL string
}

func (r BootstrapResult) Connected() bool {
	return r.Source != SourceNone
}

// Bootstrap resolves the credential for a page load. A credential carried in
// the landing URL wins and is persisted; otherwise the stored credential is
// used when it has not expired.
func Bootstrap(
	ctx context.Context,
	landingURL string,
	store core.CredentialStore,
	now time.Time,
	codec core.CredentialCodec,
) (BootstrapResult, error) {
	if store == nil {
		return BootstrapResult{}, fmt.Errorf("client: credential store is required")
	}
	if codec == nil {
		codec = core.JSONCredentialCodec{}
	}
	result := BootstrapResult{URL: landingURL}

	parsed, err := url.Parse(strings.TrimSpace(landingURL))
	if err == nil {
		values := parsed.Query()
		if payload := values.Get(core.AuthQueryParam); payload != "" {
			if credential, decodeErr := codec.Decode([]byte(payload)); decodeErr == nil {
				if err := command.NewAdoptCredentialCommand().Execute(ctx, command.AdoptCredentialMessage{
					Credential: credential,
					Store:      store,
				}); err != nil {
					return result, err
				}
				values.Del(core.AuthQueryParam)
				parsed.RawQuery = values.Encode()
				result.Credential = credential
				result.Source = SourceURL
				result.URL = parsed.String()
				return result, nil
			}
		}
	}

	stored, err := query.NewLoadCredentialQuery().Query(ctx, query.LoadCredentialMessage{Store: store})
	if err != nil {
		if errors.Is(err, core.ErrCredentialNotFound) || errors.Is(err, core.ErrCredentialMalformed) {
			return result, nil
		}
		return result, err
	}
	if !stored.ExpiresAt.After(now) {
		return result, nil
	}
	result.Credential = stored
	result.Source = SourceStore
	return result, nil
}
