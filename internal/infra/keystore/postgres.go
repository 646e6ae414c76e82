package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	consts "github.com/spounge-ai/reqauth/internal/constants"
	"github.com/spounge-ai/reqauth/internal/domain"
	app_errors "github.com/spounge-ai/reqauth/internal/errors"
	"github.com/spounge-ai/reqauth/internal/infra/persistence"
)

// Postgres resolves secrets from the api_keys table. Disabled keys are
// reported as absent.
type Postgres struct {
	db persistence.DB
}

func NewPostgres(db persistence.DB) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: postgres key store requires a database handle", app_errors.ErrInvalidConfig)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Lookup(ctx context.Context, keyID string) (domain.Secret, bool, error) {
	ctx, cancel := persistence.WithQueryTimeout(ctx)
	defer cancel()

	var secret []byte
	err := p.db.QueryRow(ctx, consts.Queries[consts.StmtLookupSecret], keyID).Scan(&secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to look up key %s: %w", app_errors.ErrKeyStoreUnavailable, keyID, err)
	}
	if len(secret) == 0 {
		return nil, false, nil
	}
	return secret, true, nil
}
