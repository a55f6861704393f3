package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	Globals

	Serve      ServeCmd      `cmd:"" help:"Run the HTTP server with the connect, callback and invoice routes."`
	ConnectURL ConnectURLCmd `cmd:"" name:"connect-url" help:"Print the QuickBooks authorization URL."`
	Adopt      AdoptCmd      `cmd:"" help:"Adopt the credential carried by a landing URL into the configured store."`
	Invoices   InvoicesCmd   `cmd:"" help:"Fetch invoices with the stored credential and print them as JSON."`
	Logout     LogoutCmd     `cmd:"" help:"Remove the stored credential."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	parser := kong.Parse(&app,
		kong.Name("qbchat"),
		kong.Description("QuickBooks OAuth2 connector and invoice reader."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	parser.FatalIfErrorf(parser.Run(&app.Globals))
}
