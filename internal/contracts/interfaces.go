package contracts

import "context"

// CorpusReader streams the asset corpus. The screener core never writes
// to it; ingestion is a separate process.
type CorpusReader interface {
	// ScanAssets calls fn for every asset record. Returning an error from
	// fn stops the scan and propagates the error.
	ScanAssets(ctx context.Context, fn func(*AssetRecord) error) error
}

// FilterSetStore persists user filter sets.
type FilterSetStore interface {
	// Get returns (nil, nil) when no set exists for the owner and name.
	Get(ctx context.Context, ownerID, name string) (*FilterSet, error)

	// ListIncluded returns the owner's sets with the included flag on.
	ListIncluded(ctx context.Context, ownerID string) ([]*FilterSet, error)

	// UpsertCriterion writes one criterion, creating the set on first use.
	// Last write wins; concurrent writers are not ordered.
	UpsertCriterion(ctx context.Context, ownerID, name, attribute string, c Criterion) error

	// UnsetFields removes the named criteria, leaving the rest untouched.
	UnsetFields(ctx context.Context, ownerID, name string, fields []string) error

	// ClearCriteria empties the whole criteria document, keeping only the
	// (owner, name) identity and the included flag.
	ClearCriteria(ctx context.Context, ownerID, name string) error

	// SetIncluded flips whether the combined view considers the set.
	SetIncluded(ctx context.Context, ownerID, name string, included bool) error
}

// ProfileReader exposes the per-user data the screener needs from the
// account service.
type ProfileReader interface {
	// HiddenSymbols returns the owner's universal exclusion list.
	HiddenSymbols(ctx context.Context, ownerID string) (map[string]struct{}, error)
}

// ScreenerService is the surface the request layer consumes.
type ScreenerService interface {
	ResolveAndStore(ctx context.Context, ownerID, name, attribute, period string, lo, hi *float64) (StoredRange, error)
	SetCriterion(ctx context.Context, ownerID, name, attribute string, c Criterion) error
	ListMatches(ctx context.Context, ownerID, name string) ([]MatchRecord, error)
	ListCombinedMatches(ctx context.Context, ownerID string) ([]MatchRecord, error)
	ResetCategory(ctx context.Context, ownerID, name, category string) error
	ResetAll(ctx context.Context, ownerID, name string) error
	SetIncluded(ctx context.Context, ownerID, name string, included bool) error
}
