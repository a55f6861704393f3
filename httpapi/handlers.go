package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-quickbooks/command"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/query"
)

const (
	callbackFailedMessage = "Error processing QuickBooks callback"
	connectFailedMessage  = "Error starting QuickBooks authorization"
	invalidCredentialMsg  = "Invalid credential"
	invalidStateMessage   = "Invalid OAuth state"
)

// Connect redirects the browser to the provider authorization page.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := ""
	if h.cfg.VerifyState {
		generated, err := core.GenerateOAuthState()
		if err != nil {
			h.logger.Error("oauth state generation failed", "error", err)
			writeError(w, http.StatusInternalServerError, connectFailedMessage)
			return
		}
		state = generated
	}

	collector := gocmd.NewResult[core.BeginAuthResponse]()
	err := command.NewConnectCommand(h.service).Execute(
		gocmd.ContextWithResult(ctx, collector),
		command.ConnectMessage{Request: core.ConnectRequest{State: state}},
	)
	if err != nil {
		h.logger.Error("quickbooks connect failed", "error", err)
		writeError(w, statusFor(err, http.StatusInternalServerError), connectFailedMessage)
		return
	}
	response, ok := collector.Load()
	if !ok || strings.TrimSpace(response.URL) == "" {
		writeError(w, http.StatusInternalServerError, connectFailedMessage)
		return
	}

	if h.cfg.VerifyState {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.StateCookie,
			Value:    response.State,
			Path:     h.cfg.CallbackPath,
			MaxAge:   int(h.cfg.StateTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, response.URL, http.StatusFound)
}

// Callback exchanges the authorization code and redirects to the landing page
// with the serialized credential.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := core.CallbackRequest{
		Code:    strings.TrimSpace(params.Get("code")),
		RealmID: strings.TrimSpace(params.Get("realmId")),
		State:   strings.TrimSpace(params.Get("state")),
	}
	if req.Code == "" || req.RealmID == "" {
		writeError(w, http.StatusBadRequest, core.MissingParametersMessage)
		return
	}
	if h.cfg.VerifyState {
		if cookie, err := r.Cookie(h.cfg.StateCookie); err == nil {
			req.ExpectedState = cookie.Value
		}
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.StateCookie,
			Value:    "",
			Path:     h.cfg.CallbackPath,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	collector := gocmd.NewResult[core.CallbackCompletion]()
	err := command.NewCompleteCallbackCommand(h.service).Execute(
		gocmd.ContextWithResult(r.Context(), collector),
		command.CompleteCallbackMessage{Request: req},
	)
	if err != nil {
		if core.HasTextCode(err, core.ServiceErrorOAuthStateInvalid) {
			h.logger.Warn("quickbooks callback state rejected", "error", err, "realm_id", req.RealmID)
			writeError(w, http.StatusBadRequest, invalidStateMessage)
			return
		}
		h.logger.Error("quickbooks callback failed", "error", err, "realm_id", req.RealmID)
		writeError(w, http.StatusInternalServerError, callbackFailedMessage)
		return
	}
	completion, ok := collector.Load()
	if !ok || strings.TrimSpace(completion.RedirectURL) == "" {
		writeError(w, http.StatusInternalServerError, callbackFailedMessage)
		return
	}
	http.Redirect(w, r, completion.RedirectURL, http.StatusFound)
}

type invoicesResponse struct {
	Invoices   []core.Invoice  `json:"invoices"`
	Credential json.RawMessage `json:"credential"`
	Refreshed  bool            `json:"refreshed"`
}

// Invoices fetches invoices with the credential posted in the body. A refresh
// is written to a request scoped store so the server keeps no copy; the
// caller persists the returned credential.
func (h *Handler) Invoices(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidCredentialMsg)
		return
	}
	credential, err := h.cfg.Codec.Decode(body)
	if err != nil {
		h.logger.Debug("invoice request credential rejected", "error", err)
		writeError(w, http.StatusBadRequest, invalidCredentialMsg)
		return
	}

	result, err := query.NewFetchInvoicesQuery(h.service).Query(r.Context(), query.FetchInvoicesMessage{
		Request: core.FetchInvoicesRequest{
			Credential: &credential,
			Store:      core.NewMemoryCredentialStore(h.cfg.Codec),
		},
	})
	if err != nil {
		status := http.StatusBadGateway
		if statusFor(err, status) == http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		h.logger.Error("quickbooks invoice fetch failed", "error", err, "realm_id", credential.RealmID)
		writeError(w, status, errorMessage(err, "Error fetching QuickBooks invoices"))
		return
	}

	encoded, err := h.cfg.Codec.Encode(result.Credential)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error encoding credential")
		return
	}
	writeJSON(w, http.StatusOK, invoicesResponse{
		Invoices:   result.Invoices,
		Credential: encoded,
		Refreshed:  result.Refreshed,
	})
}
