package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/spounge-ai/reqauth/internal/clock"
	"github.com/spounge-ai/reqauth/internal/infra/keystore"
	"github.com/spounge-ai/reqauth/internal/signer"
	"github.com/spounge-ai/reqauth/internal/validation"
)

const secretEnv = "REQAUTH_SIGNING_SECRET"

func (c *cli) sign(args []string) int {
	fs := pflag.NewFlagSet("sign", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	keyID := fs.String("key-id", "", "API key identifier")
	secret := fs.String("secret", "", "shared secret (defaults to $"+secretEnv+")")
	encoding := fs.String("secret-encoding", keystore.EncodingRaw, "secret encoding: raw, hex or base64")
	timestamp := fs.Int64("timestamp", 0, "request timestamp in ms since the epoch (defaults to now)")
	payload := fs.String("payload", "", "payload to sign (defaults to stdin)")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	if *secret == "" {
		*secret = os.Getenv(secretEnv)
	}
	key, err := keystore.DecodeSecret(*secret, *encoding)
	if err != nil {
		return c.fail("invalid secret: %v", err)
	}

	body := []byte(*payload)
	if !fs.Changed("payload") {
		body, err = io.ReadAll(io.LimitReader(c.stdin, validation.MaxPayloadSize+1))
		if err != nil {
			return c.fail("failed to read payload: %v", err)
		}
	}

	rs, err := signer.NewRequestSigner(clock.Wall{}, *keyID, key)
	if err != nil {
		return c.fail("%v", err)
	}

	var ts int64
	if fs.Changed("timestamp") {
		ts = *timestamp
	} else {
		ts = clock.Wall{}.NowMillis()
	}
	req, err := rs.SignAt(ts, body)
	if err != nil {
		return c.fail("failed to sign: %v", err)
	}

	if err := json.NewEncoder(c.stdout).Encode(req); err != nil {
		return c.fail("failed to write request: %v", err)
	}
	return exitAccepted
}
