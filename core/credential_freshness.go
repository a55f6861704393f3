package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// EnsureCredentialFresh returns the credential unchanged while it is valid.
// Once now reaches ExpiresAt it issues a single refresh, overwrites the store
// and returns the replacement. There is no retry and no compare-and-swap on
// the store: concurrent refreshes race and the last Put wins.
func (s *Service) EnsureCredentialFresh(ctx context.Context, req EnsureCredentialFreshRequest) (result EnsureCredentialFreshResult, err error) {
	startedAt := time.Now().UTC()
	fields := s.baseFields()
	fields["realm_id"] = req.Credential.RealmID
	defer func() {
		fields["refreshed"] = result.Refreshed
		s.observeOperation(ctx, startedAt, "ensure_credential_fresh", err, fields)
	}()

	current := req.Credential
	if !current.IsExpired(s.now()) {
		return EnsureCredentialFreshResult{Credential: current}, nil
	}

	if strings.TrimSpace(current.RefreshToken) == "" {
		err = s.mapError(fmt.Errorf("core: refresh token is required"))
		return EnsureCredentialFreshResult{Credential: current}, err
	}
	if s.provider == nil {
		err = s.mapError(fmt.Errorf("core: provider is not configured"))
		return EnsureCredentialFreshResult{Credential: current}, err
	}

	refreshed, err := s.provider.Refresh(ctx, current)
	if err != nil {
		err = wrapServiceError(err, goerrors.CategoryExternal, ServiceErrorTokenRefreshFailed, "core: quickbooks token refresh failed")
		return EnsureCredentialFreshResult{Credential: current}, err
	}
	refreshed = mergeRefreshedCredential(current, refreshed)

	if store := s.resolveStore(req.Store); store != nil {
		if putErr := store.Put(ctx, refreshed); putErr != nil {
			err = s.mapError(putErr)
			return EnsureCredentialFreshResult{Credential: current}, err
		}
	}

	s.logInfo(ctx, "credential refreshed", map[string]any{
		"realm_id":   refreshed.RealmID,
		"expires_at": refreshed.ExpiresAt.Format(CredentialTimeLayout),
	})
	return EnsureCredentialFreshResult{Credential: refreshed, Refreshed: true}, nil
}

// mergeRefreshedCredential keeps the prior refresh token when the provider
// omits one, and always keeps the realm.
func mergeRefreshedCredential(previous Credential, refreshed Credential) Credential {
	if strings.TrimSpace(refreshed.RefreshToken) == "" {
		refreshed.RefreshToken = previous.RefreshToken
	}
	refreshed.RealmID = previous.RealmID
	return refreshed
}

func (s *Service) resolveStore(override CredentialStore) CredentialStore {
	if override != nil {
		return override
	}
	return s.credentialStore
}
