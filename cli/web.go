package cli

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/proposta/render"
	"github.com/robinvdvleuten/proposta/web"
)

type WebCmd struct {
	Port     int    `help:"Port to listen on." default:"8080"`
	Host     string `help:"Address to bind to." default:"127.0.0.1"`
	Watch    bool   `help:"Reload the issuer profile when it changes on disk." default:"true" negatable:""`
	Location string `help:"City printed before the date (defaults to the issuer's city)."`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry := globals.instrument(ctx, "web")
	defer reportTelemetry()

	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt)
	defer stop()

	issuerFile := ""
	if globals.Issuer != "" {
		abs, err := filepath.Abs(globals.Issuer)
		if err != nil {
			return err
		}
		issuerFile = abs
	}

	server := web.New(cmd.Port, issuerFile)
	server.Host = cmd.Host
	server.WatchEnabled = cmd.Watch
	server.Logger = globals.logger(ctx.Stderr)
	if cmd.Location != "" {
		server.RenderOptions = append(server.RenderOptions, render.WithLocation(cmd.Location))
	}

	printInfof(ctx.Stdout, "Starting server on http://%s:%d", server.Host, cmd.Port)
	if issuerFile != "" {
		printInfof(ctx.Stdout, "Issuer profile: %s", pathStyle.Render(issuerFile))
	} else {
		printInfof(ctx.Stdout, "Using the built-in issuer profile")
	}

	return server.Start(runCtx)
}
