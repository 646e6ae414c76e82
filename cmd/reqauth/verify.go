package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/spounge-ai/reqauth/internal/clock"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	infra_config "github.com/spounge-ai/reqauth/internal/infra/config"
	"github.com/spounge-ai/reqauth/internal/validation"
	"github.com/spounge-ai/reqauth/internal/wiring"
)

// configFlags registers the flags shared by commands that load configuration.
// Their names match the config package's flag bindings.
func configFlags(fs *pflag.FlagSet) *string {
	path := fs.String("config", os.Getenv("REQAUTH_CONFIG_PATH"), "path to the YAML configuration file")
	fs.Int64("max-delta-ms", infra_config.DefaultMaxDeltaMS, "replay window half-width in milliseconds")
	fs.String("keystore-type", "", "key store backend: memory, file, postgres, ssm or s3")
	fs.String("keystore-file", "", "keyring file for the file backend")
	fs.String("database-url", "", "Postgres URL")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("log-format", "", "log format: text or json")
	return path
}

func (c *cli) verify(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := configFlags(fs)
	requestPath := fs.String("request", "-", "file holding the JSON request, - for stdin")
	now := fs.Int64("now", 0, "evaluate against this clock reading in ms instead of the wall clock")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	cfg, err := infra_config.Load(*configPath, fs)
	if err != nil {
		return c.fail("%v", err)
	}
	logger := wiring.NewLogger(cfg.Logging, c.stderr)

	var clk clock.Clock = clock.Wall{}
	if fs.Changed("now") {
		clk = clock.NewReference(*now)
	}

	comps, err := wiring.Build(ctx, cfg, clk, logger)
	if err != nil {
		return c.fail("%v", err)
	}
	defer comps.Close()

	in := c.stdin
	if *requestPath != "-" {
		f, err := os.Open(*requestPath)
		if err != nil {
			return c.fail("failed to open request: %v", err)
		}
		defer f.Close()
		in = f
	}

	return c.decide(ctx, comps, in)
}

func (c *cli) decide(ctx context.Context, comps *wiring.Components, in io.Reader) int {
	req, err := validation.DecodeRequest(in)
	if err == nil {
		var ok bool
		ok, err = comps.Authorizer.Authorize(ctx, req)
		if err == nil {
			if ok {
				fmt.Fprintln(c.stdout, "accepted")
				return exitAccepted
			}
			fmt.Fprintln(c.stdout, "rejected")
			return exitRejected
		}
	}

	if errors.Is(err, app_errors.ErrMalformedRequest) {
		fmt.Fprintf(c.stdout, "malformed: %v\n", err)
		return exitMalformed
	}
	return c.fail("%v", err)
}
