package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSONCredentialCodec_RoundTrip(t *testing.T) {
	codec := JSONCredentialCodec{}
	expiresAt := time.Date(2026, 3, 14, 13, 0, 0, 123456789, time.FixedZone("EST", -5*3600))
	encoded, err := codec.Encode(Credential{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    expiresAt,
		RealmID:      "999",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(encoded), `"expiresAt":"2026-03-14T18:00:00.123Z"`) {
		t.Fatalf("expected UTC ISO-8601 expiry, got %s", encoded)
	}

	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.AccessToken != "AT1" || decoded.RefreshToken != "RT1" || decoded.RealmID != "999" {
		t.Fatalf("unexpected decoded credential %+v", decoded)
	}
	if delta := decoded.ExpiresAt.Sub(expiresAt); delta > time.Second || delta < -time.Second {
		t.Fatalf("expected expiry within one second, got delta %s", delta)
	}
	if decoded.ExpiresAt.Location() != time.UTC {
		t.Fatalf("expected UTC expiry")
	}
}

func TestJSONCredentialCodec_DecodesEpochMilliseconds(t *testing.T) {
	payload := `{"accessToken":"AT1","refreshToken":"RT1","expiresAt":1773493200000,"realmId":"999"}`
	decoded, err := JSONCredentialCodec{}.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.ExpiresAt.Equal(time.UnixMilli(1773493200000)) {
		t.Fatalf("unexpected expiry %s", decoded.ExpiresAt)
	}
}

func TestJSONCredentialCodec_DecodeRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "{accessToken",
		"missing token":  `{"refreshToken":"RT1","expiresAt":"2026-03-14T13:00:00Z","realmId":"999"}`,
		"missing realm":  `{"accessToken":"AT1","expiresAt":"2026-03-14T13:00:00Z"}`,
		"missing expiry": `{"accessToken":"AT1","realmId":"999"}`,
		"bad expiry":     `{"accessToken":"AT1","expiresAt":"tomorrow","realmId":"999"}`,
		"object expiry":  `{"accessToken":"AT1","expiresAt":{},"realmId":"999"}`,
	}
	for name, payload := range cases {
		_, err := JSONCredentialCodec{}.Decode([]byte(payload))
		if !errors.Is(err, ErrCredentialMalformed) {
			t.Fatalf("%s: expected malformed credential error, got %v", name, err)
		}
	}
}
