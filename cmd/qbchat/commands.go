package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-quickbooks/client"
	"github.com/goliatone/go-quickbooks/command"
	"github.com/goliatone/go-quickbooks/core"
	"github.com/goliatone/go-quickbooks/httpapi"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	Addr string `help:"Listen address; defaults to http.addr from config."`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := c.Addr
	if addr == "" {
		addr = rt.cfg.HTTP.Addr
	}
	router := httpapi.NewRouter(rt.service, httpapi.RouterConfig{
		VerifyState:  rt.cfg.OAuth.VerifyState,
		StateTTL:     rt.cfg.OAuth.StateTTL,
		CookieSecure: isHTTPS(rt.cfg.BaseURL),
		CallbackPath: rt.cfg.OAuth.CallbackPath,
		Logger:       rt.logger.Named("httpapi"),
	})
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: rt.cfg.HTTP.Timeout,
	}

	errs := make(chan error, 1)
	go func() {
		rt.logger.Info("qbchat listening", "addr", addr, "store", rt.stores.Driver)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rt.logger.Info("qbchat shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

type ConnectURLCmd struct{}

func (c *ConnectURLCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	collector := gocmd.NewResult[core.BeginAuthResponse]()
	if err := command.NewConnectCommand(rt.service).Execute(
		gocmd.ContextWithResult(ctx, collector),
		command.ConnectMessage{},
	); err != nil {
		return err
	}
	response, ok := collector.Load()
	if !ok {
		return fmt.Errorf("qbchat: connect produced no authorization url")
	}
	_, err = fmt.Fprintln(g.stdout(), response.URL)
	return err
}

type AdoptCmd struct {
	LandingURL string `arg:"" name:"landing-url" help:"URL the callback redirected to, including the auth parameter."`
}

func (c *AdoptCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := client.Bootstrap(ctx, c.LandingURL, rt.stores.Credential, time.Now().UTC(), nil)
	if err != nil {
		return err
	}
	if !result.Connected() {
		return core.ErrNotConnected
	}
	return json.NewEncoder(g.stdout()).Encode(map[string]any{
		"source":     result.Source,
		"realm_id":   result.Credential.RealmID,
		"expires_at": result.Credential.ExpiresAt.Format(core.CredentialTimeLayout),
		"url":        result.URL,
	})
}

type InvoicesCmd struct{}

func (c *InvoicesCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	invoices, err := client.NewSession(rt.stores.Credential, rt.service).Invoices(ctx)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(g.stdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(invoices)
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := client.NewSession(rt.stores.Credential, rt.service).Logout(ctx); err != nil {
		return err
	}
	rt.logger.Info("stored credential cleared", "slot", rt.cfg.Store.Key)
	return nil
}

func isHTTPS(baseURL string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(baseURL)), "https://")
}
