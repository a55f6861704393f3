package quickbooks

import (
	"context"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	qbcommand "github.com/goliatone/go-quickbooks/command"
	"github.com/goliatone/go-quickbooks/core"
	qbquery "github.com/goliatone/go-quickbooks/query"
)

type stubFacadeService struct {
	lastCallback core.CallbackRequest
	lastFetch    core.FetchInvoicesRequest
}

func (s *stubFacadeService) Connect(context.Context, core.ConnectRequest) (core.BeginAuthResponse, error) {
	return core.BeginAuthResponse{URL: "https://appcenter.example/connect", State: "s1"}, nil
}

func (s *stubFacadeService) CompleteCallback(_ context.Context, req core.CallbackRequest) (core.CallbackCompletion, error) {
	s.lastCallback = req
	return core.CallbackCompletion{RedirectURL: "/?auth=x"}, nil
}

func (s *stubFacadeService) EnsureCredentialFresh(_ context.Context, req core.EnsureCredentialFreshRequest) (core.EnsureCredentialFreshResult, error) {
	return core.EnsureCredentialFreshResult{Credential: req.Credential}, nil
}

func (s *stubFacadeService) FetchInvoices(_ context.Context, req core.FetchInvoicesRequest) (core.FetchInvoicesResult, error) {
	s.lastFetch = req
	return core.FetchInvoicesResult{Invoices: []core.Invoice{{ID: "1"}}}, nil
}

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	commands := facade.Commands()
	if commands.Connect == nil || commands.CompleteCallback == nil || commands.Refresh == nil ||
		commands.AdoptCredential == nil || commands.ClearCredential == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.FetchInvoices == nil || queries.LoadCredential == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	collector := gocmd.NewResult[core.CallbackCompletion]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := facade.Commands().CompleteCallback.Execute(ctx, qbcommand.CompleteCallbackMessage{
		Request: core.CallbackRequest{Code: "abc123", RealmID: "999"},
	}); err != nil {
		t.Fatalf("execute callback command: %v", err)
	}
	if svc.lastCallback.Code != "abc123" || svc.lastCallback.RealmID != "999" {
		t.Fatalf("unexpected callback delegation payload %+v", svc.lastCallback)
	}
	if completion, ok := collector.Load(); !ok || completion.RedirectURL != "/?auth=x" {
		t.Fatalf("expected collected completion, got %+v", completion)
	}

	cred := core.Credential{AccessToken: "AT1", RefreshToken: "RT1", ExpiresAt: time.Now().Add(time.Hour), RealmID: "999"}
	result, err := facade.Queries().FetchInvoices.Query(context.Background(), qbquery.FetchInvoicesMessage{
		Request: core.FetchInvoicesRequest{Credential: &cred},
	})
	if err != nil {
		t.Fatalf("fetch invoices query: %v", err)
	}
	if len(result.Invoices) != 1 || svc.lastFetch.Credential == nil || svc.lastFetch.Credential.AccessToken != "AT1" {
		t.Fatalf("unexpected fetch delegation %+v", svc.lastFetch)
	}
}

func TestFacade_NilIsSafe(t *testing.T) {
	var facade *Facade
	if facade.Service() != nil || facade.Commands().Connect != nil || facade.Queries().FetchInvoices != nil {
		t.Fatalf("expected zero values from nil facade")
	}
}
