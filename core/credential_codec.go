package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CredentialPayloadFormatJSONV1 = "quickbooks_credential_json"
	CredentialPayloadVersionV1    = 1

	// CredentialTimeLayout is ISO-8601 in UTC with millisecond precision.
	CredentialTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// CredentialCodec is the single serialization used wherever a credential
// crosses a boundary: the callback redirect, client storage and request bodies.
type CredentialCodec interface {
	Format() string
	Version() int
	Encode(credential Credential) ([]byte, error)
	Decode(payload []byte) (Credential, error)
}

type JSONCredentialCodec struct{}

func (JSONCredentialCodec) Format() string {
	return CredentialPayloadFormatJSONV1
}

func (JSONCredentialCodec) Version() int {
	return CredentialPayloadVersionV1
}

type jsonCredentialPayload struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresAt    credentialTime `json:"expiresAt"`
	RealmID      string         `json:"realmId"`
}

func (JSONCredentialCodec) Encode(credential Credential) ([]byte, error) {
	payload := jsonCredentialPayload{
		AccessToken:  strings.TrimSpace(credential.AccessToken),
		RefreshToken: strings.TrimSpace(credential.RefreshToken),
		ExpiresAt:    credentialTime(credential.ExpiresAt),
		RealmID:      strings.TrimSpace(credential.RealmID),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: encode credential payload: %w", err)
	}
	return encoded, nil
}

func (JSONCredentialCodec) Decode(payload []byte) (Credential, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return Credential{}, fmt.Errorf("%w: payload is empty", ErrCredentialMalformed)
	}
	decoded := jsonCredentialPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrCredentialMalformed, err)
	}
	credential := Credential{
		AccessToken:  strings.TrimSpace(decoded.AccessToken),
		RefreshToken: strings.TrimSpace(decoded.RefreshToken),
		ExpiresAt:    time.Time(decoded.ExpiresAt).UTC(),
		RealmID:      strings.TrimSpace(decoded.RealmID),
	}
	if err := credential.Validate(); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrCredentialMalformed, err)
	}
	return credential, nil
}

// credentialTime writes ISO-8601 and reads either an ISO-8601 string or a
// number of epoch milliseconds.
type credentialTime time.Time

func (t credentialTime) MarshalJSON() ([]byte, error) {
	value := time.Time(t)
	if value.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(value.UTC().Format(CredentialTimeLayout))
}

func (t *credentialTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*t = credentialTime{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text))
		if err != nil {
			return fmt.Errorf("core: expiresAt %q is not ISO-8601: %w", text, err)
		}
		*t = credentialTime(parsed.UTC())
		return nil
	}
	millis, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("core: expiresAt %s is not a timestamp: %w", raw, err)
	}
	*t = credentialTime(time.UnixMilli(int64(millis)).UTC())
	return nil
}
