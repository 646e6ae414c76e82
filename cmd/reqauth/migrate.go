package main

import (
	"fmt"

	"github.com/spf13/pflag"
	infra_config "github.com/spounge-ai/reqauth/internal/infra/config"
	"github.com/spounge-ai/reqauth/internal/infra/persistence"
)

func (c *cli) migrate(args []string) int {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := configFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	url, err := databaseURL(*configPath, fs)
	if err != nil {
		return c.fail("%v", err)
	}
	if err := persistence.Migrate(url); err != nil {
		return c.fail("%v", err)
	}

	fmt.Fprintln(c.stdout, "migrations completed successfully")
	return exitAccepted
}

// databaseURL prefers --database-url and falls back to the configured
// key store or audit database.
func databaseURL(configPath string, fs *pflag.FlagSet) (string, error) {
	if f := fs.Lookup("database-url"); f != nil && f.Changed {
		return f.Value.String(), nil
	}

	cfg, err := infra_config.Load(configPath, fs)
	if err != nil {
		return "", err
	}
	switch {
	case cfg.Audit.Postgres.URL != "":
		return cfg.Audit.Postgres.URL, nil
	case cfg.KeyStore.Postgres.URL != "":
		return cfg.KeyStore.Postgres.URL, nil
	}
	return "", fmt.Errorf("no database url configured: set --database-url or keystore.postgres.url")
}
