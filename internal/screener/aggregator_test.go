package screener

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/pkg/logger"
)

func aggregateCorpus() *memCorpus {
	cheap := asset("AAA", 10)
	cheap.Sector = "Technology"
	mid := asset("BBB", 50)
	mid.Sector = "Technology"
	rich := asset("CCC", 500)
	rich.Sector = "Energy"
	return &memCorpus{assets: []contracts.AssetRecord{cheap, mid, rich}}
}

func namedSet(name string, criteria map[string]contracts.Criterion) *contracts.FilterSet {
	return &contracts.FilterSet{OwnerID: "u1", Name: name, Included: true, Criteria: criteria}
}

func bySymbol(matches []contracts.MatchRecord) map[string]contracts.MatchRecord {
	out := make(map[string]contracts.MatchRecord, len(matches))
	for _, m := range matches {
		out[m.Symbol] = m
	}
	return out
}

func TestAggregateUnionAndMembership(t *testing.T) {
	sets := []*contracts.FilterSet{
		namedSet("cheap", map[string]contracts.Criterion{
			"price": contracts.RangeCriterion(5, 100), // AAA, BBB
		}),
		namedSet("tech", map[string]contracts.Criterion{
			"sector": {Values: []string{"Technology"}}, // AAA, BBB
		}),
		namedSet("expensive", map[string]contracts.Criterion{
			"price": contracts.RangeCriterion(100, 1000), // CCC
		}),
	}

	combined, err := Aggregate(context.Background(), aggregateCorpus(), sets, nil, 2, logger.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, combined, 3)

	got := bySymbol(combined)

	aaa := got["AAA"]
	sort.Strings(aaa.Screeners)
	assert.Equal(t, []string{"cheap", "tech"}, aaa.Screeners)
	assert.True(t, aaa.IsDuplicate)

	ccc := got["CCC"]
	assert.Equal(t, []string{"expensive"}, ccc.Screeners)
	assert.False(t, ccc.IsDuplicate)

	// Each symbol appears exactly once no matter how many sets matched it.
	seen := make(map[string]int)
	for _, m := range combined {
		seen[m.Symbol]++
	}
	for sym, n := range seen {
		assert.Equal(t, 1, n, sym)
	}
}

func TestAggregateDedupIsBySymbolIdentity(t *testing.T) {
	// Two sets with identical criteria emit structurally identical
	// projections; the union must still collapse them by symbol.
	criteria := map[string]contracts.Criterion{
		"price": contracts.RangeCriterion(5, 100),
	}
	sets := []*contracts.FilterSet{
		namedSet("one", criteria),
		namedSet("two", criteria),
	}

	combined, err := Aggregate(context.Background(), aggregateCorpus(), sets, nil, 0, logger.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, combined, 2) // AAA, BBB once each

	for _, m := range combined {
		assert.Len(t, m.Screeners, 2, m.Symbol)
		assert.True(t, m.IsDuplicate, m.Symbol)
	}
}

func TestAggregateSkipsFailingSet(t *testing.T) {
	sets := []*contracts.FilterSet{
		namedSet("good", map[string]contracts.Criterion{
			"price": contracts.RangeCriterion(100, 1000),
		}),
		// Stale set referencing an attribute the schema no longer carries.
		namedSet("stale", map[string]contracts.Criterion{
			"sharpeRatio": contracts.RangeCriterion(1, 2),
		}),
	}

	combined, err := Aggregate(context.Background(), aggregateCorpus(), sets, nil, 2, logger.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "CCC", combined[0].Symbol)
	assert.Equal(t, []string{"good"}, combined[0].Screeners)
}

func TestAggregateHiddenSymbolsApplyToEverySet(t *testing.T) {
	sets := []*contracts.FilterSet{
		namedSet("cheap", map[string]contracts.Criterion{
			"price": contracts.RangeCriterion(5, 100),
		}),
		namedSet("tech", map[string]contracts.Criterion{
			"sector": {Values: []string{"Technology"}},
		}),
	}
	hidden := map[string]struct{}{"AAA": {}}

	combined, err := Aggregate(context.Background(), aggregateCorpus(), sets, hidden, 2, logger.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "BBB", combined[0].Symbol)
}

func TestAggregateNoSets(t *testing.T) {
	combined, err := Aggregate(context.Background(), aggregateCorpus(), nil, nil, 2, logger.NewNop(), nil)
	require.NoError(t, err)
	assert.Empty(t, combined)
}
