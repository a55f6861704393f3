package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-quickbooks/core"
)

type MutatingService interface {
	Connect(ctx context.Context, req core.ConnectRequest) (core.BeginAuthResponse, error)
	CompleteCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackCompletion, error)
	EnsureCredentialFresh(ctx context.Context, req core.EnsureCredentialFreshRequest) (core.EnsureCredentialFreshResult, error)
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service MutatingService
}

func NewCompleteCallbackCommand(service MutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.CompleteCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	service MutatingService
}

func NewRefreshCommand(service MutatingService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.EnsureCredentialFresh(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// AdoptCredentialCommand persists a credential handed back by the callback
// redirect. Validation failures leave the store untouched.
type AdoptCredentialCommand struct{}

func NewAdoptCredentialCommand() *AdoptCredentialCommand {
	return &AdoptCredentialCommand{}
}

func (c *AdoptCredentialCommand) Execute(ctx context.Context, msg AdoptCredentialMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return msg.Store.Put(ctx, msg.Credential)
}

type ClearCredentialCommand struct{}

func NewClearCredentialCommand() *ClearCredentialCommand {
	return &ClearCredentialCommand{}
}

func (c *ClearCredentialCommand) Execute(ctx context.Context, msg ClearCredentialMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return msg.Store.Clear(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
