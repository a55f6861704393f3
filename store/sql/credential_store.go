package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CredentialStore keeps one credential row per slot key in
// quickbooks_credentials.
type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*credentialRecord]
	key  string
	now  func() time.Time
}

func NewCredentialStore(db *bun.DB, slotKey string) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	slotKey = strings.TrimSpace(slotKey)
	if slotKey == "" {
		slotKey = core.DefaultStorageKey
	}
	repo := repository.NewRepository[*credentialRecord](db, credentialHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	return &CredentialStore{
		db:   db,
		repo: repo,
		key:  slotKey,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *CredentialStore) SlotKey() string {
	if s == nil {
		return ""
	}
	return s.key
}

func (s *CredentialStore) Get(ctx context.Context) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := findCredentialTx(ctx, s.db, s.key)
	if err != nil {
		return core.Credential{}, err
	}
	if record == nil {
		return core.Credential{}, core.ErrCredentialNotFound
	}
	credential := record.toDomain()
	if err := credential.Validate(); err != nil {
		return core.Credential{}, fmt.Errorf("%w: %v", core.ErrCredentialMalformed, err)
	}
	return credential, nil
}

// Put overwrites the slot. Concurrent writers race and the last commit wins.
func (s *CredentialStore) Put(ctx context.Context, cred core.Credential) error {
	if s == nil || s.db == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	if err := cred.Validate(); err != nil {
		return err
	}
	now := s.now()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findCredentialTx(ctx, tx, s.key)
		if err != nil {
			return err
		}
		if record == nil {
			record = &credentialRecord{
				ID:        uuid.NewString(),
				SlotKey:   s.key,
				CreatedAt: now,
			}
			record.apply(cred, now)
			_, createErr := s.repo.CreateTx(ctx, tx, record)
			return createErr
		}
		record.apply(cred, now)
		_, updateErr := tx.NewUpdate().
			Model(record).
			Column("access_token", "refresh_token", "expires_at", "realm_id", "updated_at").
			Where("id = ?", record.ID).
			Exec(ctx)
		return updateErr
	})
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("slot_key = ?", s.key).
		Exec(ctx)
	return err
}

func findCredentialTx(ctx context.Context, db bun.IDB, slotKey string) (*credentialRecord, error) {
	record := &credentialRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.slot_key = ?", slotKey).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *credentialRecord) apply(cred core.Credential, now time.Time) {
	r.AccessToken = strings.TrimSpace(cred.AccessToken)
	r.RefreshToken = strings.TrimSpace(cred.RefreshToken)
	r.ExpiresAt = cred.ExpiresAt.UTC()
	r.RealmID = strings.TrimSpace(cred.RealmID)
	r.UpdatedAt = now
}

func (r *credentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	return core.Credential{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt.UTC(),
		RealmID:      r.RealmID,
	}
}
