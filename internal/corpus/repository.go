package corpus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// Repository reads the asset corpus from Postgres. The ingestion process
// owns the table and writes each instrument as one JSONB document; this
// side only scans.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new corpus repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScanAssets streams every asset record to fn in symbol order.
func (r *Repository) ScanAssets(ctx context.Context, fn func(*contracts.AssetRecord) error) error {
	query := `
		SELECT payload
		FROM screener.assets
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan asset row: %w", err)
		}

		var a contracts.AssetRecord
		if err := json.Unmarshal(payload, &a); err != nil {
			return fmt.Errorf("decode asset payload: %w", err)
		}

		if err := fn(&a); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate assets: %w", err)
	}

	return nil
}

// Count returns the number of assets in the corpus.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM screener.assets`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}
	return n, nil
}
