package cached

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-quickbooks/core"
)

const credentialCacheKeyPrefix = "go-quickbooks::credential::v1"

// CredentialStore fronts another CredentialStore with a read-through cache.
// Writes go to the base store first and then evict the cached entry.
type CredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
	key   string
}

func NewCredentialStore(
	base core.CredentialStore,
	cacheService repositorycache.CacheService,
	slotKey string,
) (*CredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("cached: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("cached: credential cache service is required")
	}
	slotKey = strings.TrimSpace(slotKey)
	if slotKey == "" {
		slotKey = core.DefaultStorageKey
	}
	return &CredentialStore{base: base, cache: cacheService, key: CredentialCacheKey(slotKey)}, nil
}

// CredentialCacheKey returns go-quickbooks::credential::v1::<slot> with the
// slot URL-path escaped.
func CredentialCacheKey(slotKey string) string {
	return credentialCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(slotKey))
}

func (s *CredentialStore) Get(ctx context.Context) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("cached: credential store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, s.key, func(ctx context.Context) (core.Credential, error) {
		return s.base.Get(ctx)
	})
}

func (s *CredentialStore) Put(ctx context.Context, cred core.Credential) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("cached: credential store is not configured")
	}
	if err := s.base.Put(ctx, cred); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.key)
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("cached: credential store is not configured")
	}
	if err := s.base.Clear(ctx); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.key)
}

var _ core.CredentialStore = (*CredentialStore)(nil)
