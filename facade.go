package quickbooks

import (
	"fmt"

	qbcommand "github.com/goliatone/go-quickbooks/command"
	qbquery "github.com/goliatone/go-quickbooks/query"
)

type CommandQueryService interface {
	qbcommand.MutatingService
	qbquery.InvoiceReader
}

type Commands struct {
	Connect          *qbcommand.ConnectCommand
	CompleteCallback *qbcommand.CompleteCallbackCommand
	Refresh          *qbcommand.RefreshCommand
	AdoptCredential  *qbcommand.AdoptCredentialCommand
	ClearCredential  *qbcommand.ClearCredentialCommand
}

type Queries struct {
	FetchInvoices  *qbquery.FetchInvoicesQuery
	LoadCredential *qbquery.LoadCredentialQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("quickbooks: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Connect:          qbcommand.NewConnectCommand(service),
			CompleteCallback: qbcommand.NewCompleteCallbackCommand(service),
			Refresh:          qbcommand.NewRefreshCommand(service),
			AdoptCredential:  qbcommand.NewAdoptCredentialCommand(),
			ClearCredential:  qbcommand.NewClearCredentialCommand(),
		},
		queries: Queries{
			FetchInvoices:  qbquery.NewFetchInvoicesQuery(service),
			LoadCredential: qbquery.NewLoadCredentialQuery(),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
