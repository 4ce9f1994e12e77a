package screener

import (
	"context"
	"sort"
	"time"

	"github.com/marketlens/screener/internal/contracts"
)

// memCorpus serves a fixed slice of asset records.
type memCorpus struct {
	assets []contracts.AssetRecord
	err    error
}

func (m *memCorpus) ScanAssets(ctx context.Context, fn func(*contracts.AssetRecord) error) error {
	if m.err != nil {
		return m.err
	}
	for i := range m.assets {
		if err := fn(&m.assets[i]); err != nil {
			return err
		}
	}
	return nil
}

// memStore keeps filter sets in a map, mirroring the repository contract:
// Get returns (nil, nil) for an absent set, upserts create the set with
// the included flag on, and unsets against an absent set are no-ops.
type memStore struct {
	sets map[string]*contracts.FilterSet
}

func newMemStore() *memStore {
	return &memStore{sets: make(map[string]*contracts.FilterSet)}
}

func storeKey(ownerID, name string) string {
	return ownerID + "\x00" + name
}

func (m *memStore) Get(ctx context.Context, ownerID, name string) (*contracts.FilterSet, error) {
	fs, ok := m.sets[storeKey(ownerID, name)]
	if !ok {
		return nil, nil
	}
	return fs.Clone(), nil
}

func (m *memStore) ListIncluded(ctx context.Context, ownerID string) ([]*contracts.FilterSet, error) {
	out := make([]*contracts.FilterSet, 0)
	for _, fs := range m.sets {
		if fs.OwnerID == ownerID && fs.Included {
			out = append(out, fs.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpsertCriterion(ctx context.Context, ownerID, name, attribute string, c contracts.Criterion) error {
	key := storeKey(ownerID, name)
	fs, ok := m.sets[key]
	if !ok {
		fs = &contracts.FilterSet{
			OwnerID:  ownerID,
			Name:     name,
			Included: true,
			Criteria: make(map[string]contracts.Criterion),
		}
		m.sets[key] = fs
	}
	fs.Criteria[attribute] = c
	fs.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) UnsetFields(ctx context.Context, ownerID, name string, fields []string) error {
	fs, ok := m.sets[storeKey(ownerID, name)]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(fs.Criteria, f)
	}
	fs.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) ClearCriteria(ctx context.Context, ownerID, name string) error {
	fs, ok := m.sets[storeKey(ownerID, name)]
	if !ok {
		return nil
	}
	fs.Criteria = make(map[string]contracts.Criterion)
	fs.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) SetIncluded(ctx context.Context, ownerID, name string, included bool) error {
	if fs, ok := m.sets[storeKey(ownerID, name)]; ok {
		fs.Included = included
	}
	return nil
}

// seed installs a set directly, bypassing the upsert path.
func (m *memStore) seed(fs *contracts.FilterSet) {
	m.sets[storeKey(fs.OwnerID, fs.Name)] = fs
}

// memProfiles serves a fixed hidden-symbol list per owner.
type memProfiles struct {
	hidden map[string][]string
}

func (m *memProfiles) HiddenSymbols(ctx context.Context, ownerID string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, s := range m.hidden[ownerID] {
		out[s] = struct{}{}
	}
	return out, nil
}

// asset builds a minimal record with a single quote.
func asset(symbol string, close float64) contracts.AssetRecord {
	return contracts.AssetRecord{
		Symbol: symbol,
		Name:   symbol + " Inc",
		Quotes: []contracts.Quote{{Date: "2026-08-27", Close: close}},
	}
}
