package core

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCredentialStore keeps the encoded credential in process memory. It
// stores the codec payload rather than the struct so reads go through the same
// decoding path as durable stores.
type MemoryCredentialStore struct {
	mu      sync.Mutex
	codec   CredentialCodec
	payload []byte
}

func NewMemoryCredentialStore(codec CredentialCodec) *MemoryCredentialStore {
	if codec == nil {
		codec = JSONCredentialCodec{}
	}
	return &MemoryCredentialStore{codec: codec}
}

func (s *MemoryCredentialStore) Get(_ context.Context) (Credential, error) {
	if s == nil {
		return Credential{}, fmt.Errorf("core: credential store is not configured")
	}
	s.mu.Lock()
	payload := append([]byte(nil), s.payload...)
	s.mu.Unlock()

	if len(payload) == 0 {
		return Credential{}, ErrCredentialNotFound
	}
	return s.codec.Decode(payload)
}

func (s *MemoryCredentialStore) Put(_ context.Context, cred Credential) error {
	if s == nil {
		return fmt.Errorf("core: credential store is not configured")
	}
	payload, err := s.codec.Encode(cred)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	if s == nil {
		return fmt.Errorf("core: credential store is not configured")
	}
	s.mu.Lock()
	s.payload = nil
	s.mu.Unlock()
	return nil
}

// PutRaw replaces the stored payload without encoding it.
func (s *MemoryCredentialStore) PutRaw(payload []byte) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.payload = append([]byte(nil), payload...)
	s.mu.Unlock()
}
