package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the per-user data the screener needs from the account
// tables. The account service owns the rows; this side is read-only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HiddenSymbols returns the owner's universal exclusion list. A user
// without a profile row simply hides nothing.
func (r *Repository) HiddenSymbols(ctx context.Context, ownerID string) (map[string]struct{}, error) {
	query := `
		SELECT hidden_symbols
		FROM screener.user_profiles
		WHERE user_id = $1
	`

	var symbols []string
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(&symbols)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hidden symbols: %w", err)
	}

	hidden := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		hidden[s] = struct{}{}
	}

	return hidden, nil
}
