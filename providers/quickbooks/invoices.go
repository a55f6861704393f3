package quickbooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/transport"
)

const (
	InvoiceQuery = "SELECT * FROM Invoice"

	StatusPaid    = "Paid"
	StatusOverdue = "Overdue"
	StatusOpen    = "Open"

	dueDateLayout = "2006-01-02"
)

type InvoiceClientConfig struct {
	APIBaseURL string
	Transport  core.TransportAdapter
	Timeout    time.Duration
	Now        func() time.Time
}

// InvoiceClient runs the invoice query against the accounting API.
type InvoiceClient struct {
	apiBaseURL string
	transport  core.TransportAdapter
	timeout    time.Duration
	now        func() time.Time
}

func NewInvoiceClient(cfg InvoiceClientConfig) (*InvoiceClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		base = core.DefaultProductionAPIBase
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("quickbooks: api base url is invalid: %w", err)
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(transport.NewHTTPClient(cfg.Timeout))
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &InvoiceClient{
		apiBaseURL: base,
		transport:  adapter,
		timeout:    cfg.Timeout,
		now:        now,
	}, nil
}

func (c *InvoiceClient) ListInvoices(ctx context.Context, cred core.Credential) ([]core.Invoice, error) {
	if c == nil || c.transport == nil {
		return nil, fmt.Errorf("quickbooks: invoice client is not configured")
	}
	realmID := strings.TrimSpace(cred.RealmID)
	if realmID == "" {
		return nil, fmt.Errorf("quickbooks: realm id is required")
	}

	response, err := c.transport.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    c.apiBaseURL + "/v3/company/" + url.PathEscape(realmID) + "/query",
		Headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/text",
		},
		Body:       []byte(InvoiceQuery),
		Timeout:    c.timeout,
		Credential: &cred,
		Metadata:   map[string]any{"realm_id": realmID},
	})
	if err != nil {
		return nil, err
	}

	envelope := queryEnvelope{}
	decodeErr := json.Unmarshal(response.Body, &envelope)
	if statusErr := transport.StatusError("invoice query", response); statusErr != nil {
		if decodeErr == nil && envelope.Fault != nil {
			return nil, faultError(envelope.Fault, response.StatusCode, statusErr)
		}
		return nil, statusErr
	}
	if decodeErr != nil {
		return nil, goerrors.Wrap(decodeErr, goerrors.CategoryExternal, "quickbooks: decode invoice query response").
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ServiceErrorQueryFailed)
	}
	if envelope.Fault != nil {
		return nil, faultError(envelope.Fault, response.StatusCode, nil)
	}
	if envelope.QueryResponse == nil {
		return nil, goerrors.New("quickbooks: invoice query response missing QueryResponse", goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ServiceErrorQueryFailed)
	}

	today := c.now().UTC().Format(dueDateLayout)
	invoices := make([]core.Invoice, 0, len(envelope.QueryResponse.Invoice))
	for _, item := range envelope.QueryResponse.Invoice {
		invoices = append(invoices, item.toInvoice(today))
	}
	return invoices, nil
}

type queryEnvelope struct {
	QueryResponse *queryResponse `json:"QueryResponse"`
	Fault         *faultPayload  `json:"Fault"`
}

type queryResponse struct {
	Invoice       []invoicePayload `json:"Invoice"`
	StartPosition int              `json:"startPosition"`
	MaxResults    int              `json:"maxResults"`
}

type invoicePayload struct {
	ID          string `json:"Id"`
	CustomerRef struct {
		Value string `json:"value"`
		Name  string `json:"name"`
	} `json:"CustomerRef"`
	DueDate  string  `json:"DueDate"`
	TotalAmt float64 `json:"TotalAmt"`
	Balance  float64 `json:"Balance"`
	Status   string  `json:"status"`
}

// toInvoice keeps a provider supplied status. Otherwise the status is derived
// from the balance and the due date compared against today (YYYY-MM-DD).
func (p invoicePayload) toInvoice(today string) core.Invoice {
	status := strings.TrimSpace(p.Status)
	if status == "" {
		switch {
		case p.Balance <= 0:
			status = StatusPaid
		case p.DueDate != "" && p.DueDate < today:
			status = StatusOverdue
		default:
			status = StatusOpen
		}
	}
	return core.Invoice{
		ID: p.ID,
		CustomerRef: core.CustomerRef{
			Value: p.CustomerRef.Value,
			Name:  p.CustomerRef.Name,
		},
		DueDate:     p.DueDate,
		TotalAmount: p.TotalAmt,
		Balance:     p.Balance,
		Status:      status,
	}
}

type faultPayload struct {
	Type  string `json:"type"`
	Error []struct {
		Message string `json:"Message"`
		Detail  string `json:"Detail"`
		Code    string `json:"code"`
	} `json:"Error"`
}

func faultError(fault *faultPayload, statusCode int, source error) error {
	message := "quickbooks: invoice query fault"
	metadata := map[string]any{"fault_type": fault.Type, "status_code": statusCode}
	if len(fault.Error) > 0 {
		first := fault.Error[0]
		message = fmt.Sprintf("quickbooks: invoice query fault: %s", strings.TrimSpace(first.Message))
		metadata["fault_code"] = first.Code
		metadata["fault_detail"] = first.Detail
	}
	category := goerrors.CategoryExternal
	if strings.EqualFold(fault.Type, "AUTHENTICATION") || statusCode == http.StatusUnauthorized {
		category = goerrors.CategoryAuth
	}
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, category, message)
	} else {
		err = goerrors.New(message, category)
	}
	return err.WithCode(http.StatusBadGateway).
		WithTextCode(core.ServiceErrorQueryFailed).
		WithMetadata(metadata)
}

var _ core.InvoiceSource = (*InvoiceClient)(nil)
