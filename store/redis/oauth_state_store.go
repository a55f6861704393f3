package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-quickbooks/core"
	"github.com/redis/go-redis/v9"
)

const defaultStateTTL = 15 * time.Minute

// OAuthStateStore keeps state records with a redis TTL and consumes them with
// GETDEL, so a state can be redeemed once across processes.
type OAuthStateStore struct {
	client Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewOAuthStateStore(client Client, prefix string, ttl time.Duration) (*OAuthStateStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: client is required")
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &OAuthStateStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

type stateEnvelope struct {
	State       string         `json:"state"`
	RedirectURI string         `json:"redirect_uri,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

func (s *OAuthStateStore) Save(ctx context.Context, record core.OAuthStateRecord) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redisstore: oauth state store is not configured")
	}
	state := strings.TrimSpace(record.State)
	if state == "" {
		return fmt.Errorf("redisstore: oauth state is required")
	}
	now := s.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}
	ttl := record.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return core.ErrOAuthStateExpired
	}

	payload, err := json.Marshal(stateEnvelope{
		State:       state,
		RedirectURI: record.RedirectURI,
		Metadata:    record.Metadata,
		CreatedAt:   record.CreatedAt.UTC(),
		ExpiresAt:   record.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("redisstore: encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: save oauth state: %w", err)
	}
	return nil
}

func (s *OAuthStateStore) Consume(ctx context.Context, state string) (core.OAuthStateRecord, error) {
	if s == nil || s.client == nil {
		return core.OAuthStateRecord{}, fmt.Errorf("redisstore: oauth state store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return core.OAuthStateRecord{}, fmt.Errorf("redisstore: oauth state is required")
	}
	payload, err := s.client.GetDel(ctx, s.key(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.OAuthStateRecord{}, core.ErrOAuthStateNotFound
		}
		return core.OAuthStateRecord{}, fmt.Errorf("redisstore: consume oauth state: %w", err)
	}
	envelope := stateEnvelope{}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return core.OAuthStateRecord{}, fmt.Errorf("redisstore: decode oauth state: %w", err)
	}
	if !envelope.ExpiresAt.IsZero() && s.now().After(envelope.ExpiresAt) {
		return core.OAuthStateRecord{}, core.ErrOAuthStateExpired
	}
	return core.OAuthStateRecord{
		State:       envelope.State,
		RedirectURI: envelope.RedirectURI,
		Metadata:    envelope.Metadata,
		CreatedAt:   envelope.CreatedAt,
		ExpiresAt:   envelope.ExpiresAt,
	}, nil
}

func (s *OAuthStateStore) key(state string) string {
	return namespacedKey(s.prefix, "oauth_state", state)
}

var _ core.OAuthStateStore = (*OAuthStateStore)(nil)
