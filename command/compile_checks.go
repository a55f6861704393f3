package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ConnectMessage]          = (*ConnectCommand)(nil)
	_ gocmd.Commander[CompleteCallbackMessage] = (*CompleteCallbackCommand)(nil)
	_ gocmd.Commander[RefreshMessage]          = (*RefreshCommand)(nil)
	_ gocmd.Commander[AdoptCredentialMessage]  = (*AdoptCredentialCommand)(nil)
	_ gocmd.Commander[ClearCredentialMessage]  = (*ClearCredentialCommand)(nil)
)
