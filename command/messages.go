package command

import (
	"strings"

	"github.com/goliatone/go-quickbooks/core"
)

const (
	TypeConnect          = "quickbooks.command.connect"
	TypeCompleteCallback = "quickbooks.command.callback.complete"
	TypeRefresh          = "quickbooks.command.credential.refresh"
	TypeAdoptCredential  = "quickbooks.command.credential.adopt"
	TypeClearCredential  = "quickbooks.command.credential.clear"
)

type ConnectMessage struct {
	Request core.ConnectRequest
}

func (ConnectMessage) Type() string { return TypeConnect }

func (m ConnectMessage) Validate() error {
	return nil
}

type CompleteCallbackMessage struct {
	Request core.CallbackRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

// Missing code or realm is reported by CompleteCallback itself.
func (m CompleteCallbackMessage) Validate() error {
	return nil
}

type RefreshMessage struct {
	Request core.EnsureCredentialFreshRequest
}

func (RefreshMessage) Type() string { return TypeRefresh }

func (m RefreshMessage) Validate() error {
	if strings.TrimSpace(m.Request.Credential.RefreshToken) == "" {
		return commandValidationError("refresh_token", "refresh token is required")
	}
	if strings.TrimSpace(m.Request.Credential.RealmID) == "" {
		return commandValidationError("realm_id", "realm id is required")
	}
	return nil
}

type AdoptCredentialMessage struct {
	Credential core.Credential
	Store      core.CredentialStore
}

func (AdoptCredentialMessage) Type() string { return TypeAdoptCredential }

func (m AdoptCredentialMessage) Validate() error {
	if m.Store == nil {
		return commandInvalidInputError("command: credential store is required")
	}
	return commandWrapValidation(m.Credential.Validate(), "command: credential is invalid")
}

type ClearCredentialMessage struct {
	Store core.CredentialStore
}

func (ClearCredentialMessage) Type() string { return TypeClearCredential }

func (m ClearCredentialMessage) Validate() error {
	if m.Store == nil {
		return commandInvalidInputError("command: credential store is required")
	}
	return nil
}
