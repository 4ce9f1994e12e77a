package filterset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// Repository persists filter sets. Criteria live in one JSONB column keyed
// by attribute name; criterion writes are single-statement merges so that
// concurrent writers stay last-write-wins per attribute without read-
// modify-write races on the whole document.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new filter set repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the owner's named set, or (nil, nil) when it does not exist.
func (r *Repository) Get(ctx context.Context, ownerID, name string) (*contracts.FilterSet, error) {
	query := `
		SELECT included, criteria, updated_at
		FROM screener.filter_sets
		WHERE owner_id = $1 AND name = $2
	`

	fs := &contracts.FilterSet{OwnerID: ownerID, Name: name}
	var criteriaJSON []byte

	err := r.pool.QueryRow(ctx, query, ownerID, name).Scan(&fs.Included, &criteriaJSON, &fs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get filter set: %w", err)
	}

	if err := json.Unmarshal(criteriaJSON, &fs.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	if fs.Criteria == nil {
		fs.Criteria = make(map[string]contracts.Criterion)
	}

	return fs, nil
}

// ListIncluded returns the owner's sets with the included flag on.
func (r *Repository) ListIncluded(ctx context.Context, ownerID string) ([]*contracts.FilterSet, error) {
	query := `
		SELECT name, criteria, updated_at
		FROM screener.filter_sets
		WHERE owner_id = $1 AND included
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list included sets: %w", err)
	}
	defer rows.Close()

	sets := make([]*contracts.FilterSet, 0)
	for rows.Next() {
		fs := &contracts.FilterSet{OwnerID: ownerID, Included: true}
		var criteriaJSON []byte

		if err := rows.Scan(&fs.Name, &criteriaJSON, &fs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan filter set row: %w", err)
		}
		if err := json.Unmarshal(criteriaJSON, &fs.Criteria); err != nil {
			return nil, fmt.Errorf("decode criteria for %q: %w", fs.Name, err)
		}
		if fs.Criteria == nil {
			fs.Criteria = make(map[string]contracts.Criterion)
		}

		sets = append(sets, fs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filter sets: %w", err)
	}

	return sets, nil
}

// UpsertCriterion writes one criterion, creating the set on first use.
func (r *Repository) UpsertCriterion(ctx context.Context, ownerID, name, attribute string, c contracts.Criterion) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode criterion: %w", err)
	}

	query := `
		INSERT INTO screener.filter_sets (owner_id, name, included, criteria, updated_at)
		VALUES ($1, $2, TRUE, jsonb_build_object($3::text, $4::jsonb), NOW())
		ON CONFLICT (owner_id, name) DO UPDATE SET
			criteria = screener.filter_sets.criteria || jsonb_build_object($3::text, $4::jsonb),
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, ownerID, name, attribute, payload); err != nil {
		return fmt.Errorf("upsert criterion: %w", err)
	}

	return nil
}

// UnsetFields removes the named criteria. Unknown fields and an absent set
// are both no-ops, which makes resets idempotent.
func (r *Repository) UnsetFields(ctx context.Context, ownerID, name string, fields []string) error {
	query := `
		UPDATE screener.filter_sets
		SET criteria = criteria - $3::text[],
		    updated_at = NOW()
		WHERE owner_id = $1 AND name = $2
	`

	if _, err := r.pool.Exec(ctx, query, ownerID, name, fields); err != nil {
		return fmt.Errorf("unset fields: %w", err)
	}

	return nil
}

// ClearCriteria empties the criteria document outright. Unlike UnsetFields
// it also removes entries stored under names the current vocabulary no
// longer carries.
func (r *Repository) ClearCriteria(ctx context.Context, ownerID, name string) error {
	query := `
		UPDATE screener.filter_sets
		SET criteria = '{}'::jsonb,
		    updated_at = NOW()
		WHERE owner_id = $1 AND name = $2
	`

	if _, err := r.pool.Exec(ctx, query, ownerID, name); err != nil {
		return fmt.Errorf("clear criteria: %w", err)
	}

	return nil
}

// SetIncluded flips the combined-view flag.
func (r *Repository) SetIncluded(ctx context.Context, ownerID, name string, included bool) error {
	query := `
		UPDATE screener.filter_sets
		SET included = $3,
		    updated_at = NOW()
		WHERE owner_id = $1 AND name = $2
	`

	if _, err := r.pool.Exec(ctx, query, ownerID, name, included); err != nil {
		return fmt.Errorf("set included: %w", err)
	}

	return nil
}
