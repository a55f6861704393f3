package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-quickbooks/core"
	"github.com/redis/go-redis/v9"
)

// CredentialStore keeps the encoded credential under a single key with no
// expiry. The credential carries its own ExpiresAt.
type CredentialStore struct {
	client Client
	codec  core.CredentialCodec
	prefix string
	key    string
}

type CredentialStoreOption func(*CredentialStore)

func WithCredentialCodec(codec core.CredentialCodec) CredentialStoreOption {
	return func(s *CredentialStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

func WithCredentialKeyPrefix(prefix string) CredentialStoreOption {
	return func(s *CredentialStore) {
		s.prefix = prefix
	}
}

func NewCredentialStore(client Client, slotKey string, opts ...CredentialStoreOption) (*CredentialStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: client is required")
	}
	slotKey = strings.TrimSpace(slotKey)
	if slotKey == "" {
		slotKey = core.DefaultStorageKey
	}
	store := &CredentialStore{
		client: client,
		codec:  core.JSONCredentialCodec{},
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	store.key = namespacedKey(store.prefix, "credential", slotKey)
	return store, nil
}

func (s *CredentialStore) Key() string {
	if s == nil {
		return ""
	}
	return s.key
}

func (s *CredentialStore) Get(ctx context.Context) (core.Credential, error) {
	if s == nil || s.client == nil {
		return core.Credential{}, fmt.Errorf("redisstore: credential store is not configured")
	}
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Credential{}, core.ErrCredentialNotFound
		}
		return core.Credential{}, fmt.Errorf("redisstore: get credential: %w", err)
	}
	return s.codec.Decode(payload)
}

func (s *CredentialStore) Put(ctx context.Context, cred core.Credential) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redisstore: credential store is not configured")
	}
	payload, err := s.codec.Encode(cred)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: put credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redisstore: credential store is not configured")
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redisstore: clear credential: %w", err)
	}
	return nil
}

var _ core.CredentialStore = (*CredentialStore)(nil)
