package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/pflag"
	infra_config "github.com/spounge-ai/reqauth/internal/infra/config"
	"github.com/spounge-ai/reqauth/internal/infra/persistence"
	"github.com/spounge-ai/reqauth/internal/validation"
)

func (c *cli) audit(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("audit", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := configFlags(fs)
	keyID := fs.String("key-id", "", "API key identifier")
	limit := fs.Int("limit", 0, "maximum number of events, newest first")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	n, err := validation.NewQueryValidator().ValidateAuditHistoryQuery(*keyID, *limit)
	if err != nil {
		return c.fail("invalid query: %v", err)
	}

	url, err := databaseURL(*configPath, fs)
	if err != nil {
		return c.fail("%v", err)
	}
	pool, err := persistence.NewConnectionPool(ctx, infra_config.PostgresConfig{URL: url})
	if err != nil {
		return c.fail("%v", err)
	}
	defer pool.Close()

	repo, err := persistence.NewAuditRepository(pool)
	if err != nil {
		return c.fail("%v", err)
	}
	events, err := repo.GetAuditHistory(ctx, *keyID, n)
	if err != nil {
		return c.fail("%v", err)
	}

	enc := json.NewEncoder(c.stdout)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return c.fail("failed to write event: %v", err)
		}
	}
	return exitAccepted
}
