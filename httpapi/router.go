package httpapi

import (
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-quickbooks/command"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/query"
	"github.com/gorilla/mux"
)

const (
	ConnectPath  = "/api/quickbooks/connect"
	CallbackPath = core.DefaultCallbackPath
	InvoicesPath = "/api/quickbooks/invoices"
	HealthPath   = "/healthz"

	DefaultStateCookie = "qb_oauth_state"

	maxRequestBodyBytes = 1 << 20
)

// Service is the subset of core.Service the routes drive.
type Service interface {
	command.MutatingService
	query.InvoiceReader
}

type RouterConfig struct {
	// VerifyState binds the generated OAuth state to a cookie and requires the
	// callback to echo it.
	VerifyState  bool
	StateCookie  string
	StateTTL     time.Duration
	CookieSecure bool
	CallbackPath string
	Codec        core.CredentialCodec
	Logger       core.Logger
}

type Handler struct {
	service Service
	cfg     RouterConfig
	logger  core.Logger
}

func NewRouter(service Service, cfg RouterConfig) *mux.Router {
	h := NewHandler(service, cfg)
	r := mux.NewRouter()

	r.HandleFunc("/", h.Landing).Methods(http.MethodGet)
	r.HandleFunc(HealthPath, h.Health).Methods(http.MethodGet)
	r.HandleFunc(ConnectPath, h.Connect).Methods(http.MethodGet)
	r.HandleFunc(h.cfg.CallbackPath, h.Callback).Methods(http.MethodGet)
	r.HandleFunc(InvoicesPath, h.Invoices).Methods(http.MethodPost)

	return r
}

func NewHandler(service Service, cfg RouterConfig) *Handler {
	if strings.TrimSpace(cfg.StateCookie) == "" {
		cfg.StateCookie = DefaultStateCookie
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 15 * time.Minute
	}
	cfg.CallbackPath = strings.TrimSpace(cfg.CallbackPath)
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = CallbackPath
	}
	if !strings.HasPrefix(cfg.CallbackPath, "/") {
		cfg.CallbackPath = "/" + cfg.CallbackPath
	}
	if cfg.Codec == nil {
		cfg.Codec = core.JSONCredentialCodec{}
	}
	return &Handler{
		service: service,
		cfg:     cfg,
		logger:  glog.Ensure(cfg.Logger),
	}
}

func (h *Handler) Landing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"connect_url": ConnectPath})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
