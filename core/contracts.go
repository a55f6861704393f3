package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrCredentialNotFound  = errors.New("core: credential not found")
	ErrCredentialMalformed = errors.New("core: credential payload is malformed")
	ErrNotConnected        = errors.New("core: quickbooks account is not connected")
)

// Credential is the token pair plus the company it is scoped to. ExpiresAt is
// exclusive: at or after that instant the access token must be refreshed.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	RealmID      string
}

// IsExpired reports whether now has reached the credential expiry.
func (c Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

func (c Credential) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return errors.New("core: access token is required")
	}
	if strings.TrimSpace(c.RealmID) == "" {
		return errors.New("core: realm id is required")
	}
	if c.ExpiresAt.IsZero() {
		return errors.New("core: credential expiry is required")
	}
	return nil
}

type CustomerRef struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

type Invoice struct {
	ID          string      `json:"id"`
	CustomerRef CustomerRef `json:"customerRef"`
	DueDate     string      `json:"dueDate"`
	TotalAmount float64     `json:"totalAmount"`
	Balance     float64     `json:"balance"`
	Status      string      `json:"status"`
}

type BeginAuthRequest struct {
	RedirectURI string
	State       string
	Scopes      []string
}

type BeginAuthResponse struct {
	URL   string
	State string
}

type CompleteAuthRequest struct {
	Code        string
	RealmID     string
	RedirectURI string
}

type ConnectRequest struct {
	State    string
	Metadata map[string]any
}

type CallbackRequest struct {
	Code    string
	RealmID string
	State   string
	// ExpectedState is the value bound to the browser session when the flow began.
	ExpectedState string
}

type CallbackCompletion struct {
	Credential  Credential
	RedirectURL string
}

type EnsureCredentialFreshRequest struct {
	Credential Credential
	Store      CredentialStore
}

type EnsureCredentialFreshResult struct {
	Credential Credential
	Refreshed  bool
}

type FetchInvoicesRequest struct {
	// Credential is read from Store when nil.
	Credential *Credential
	Store      CredentialStore
}

type FetchInvoicesResult struct {
	Invoices   []Invoice
	Credential Credential
	Refreshed  bool
}

// Provider runs the OAuth2 authorization-code and refresh-token grants.
type Provider interface {
	ID() string
	BeginAuth(ctx context.Context, req BeginAuthRequest) (BeginAuthResponse, error)
	CompleteAuth(ctx context.Context, req CompleteAuthRequest) (Credential, error)
	Refresh(ctx context.Context, cred Credential) (Credential, error)
}

type InvoiceSource interface {
	ListInvoices(ctx context.Context, cred Credential) ([]Invoice, error)
}

// CredentialStore holds at most one credential. Get returns
// ErrCredentialNotFound when the slot is empty and ErrCredentialMalformed when
// the stored payload cannot be decoded.
type CredentialStore interface {
	Get(ctx context.Context) (Credential, error)
	Put(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type Signer interface {
	Sign(ctx context.Context, req *http.Request, cred Credential) error
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
	// Credential is applied through the adapter signer when set.
	Credential *Credential
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type IntegrationService interface {
	Connect(ctx context.Context, req ConnectRequest) (BeginAuthResponse, error)
	CompleteCallback(ctx context.Context, req CallbackRequest) (CallbackCompletion, error)
	EnsureCredentialFresh(ctx context.Context, req EnsureCredentialFreshRequest) (EnsureCredentialFreshResult, error)
	FetchInvoices(ctx context.Context, req FetchInvoicesRequest) (FetchInvoicesResult, error)
}
