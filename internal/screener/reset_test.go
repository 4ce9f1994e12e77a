package screener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
)

func TestCategoryFields(t *testing.T) {
	fields, err := CategoryFields("FundGrowth")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"revenueGrowthQQ", "revenueGrowthYY",
		"earningsGrowthQQ", "earningsGrowthYY",
		"epsGrowthQQ", "epsGrowthYY",
	}, fields)

	fields, err = CategoryFields("IPO")
	require.NoError(t, err)
	assert.Equal(t, []string{"ipoYear"}, fields)

	_, err = CategoryFields("Momentum")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryFieldsReturnsCopy(t *testing.T) {
	fields, err := CategoryFields("RSscore")
	require.NoError(t, err)
	fields[0] = "mutated"

	again, err := CategoryFields("RSscore")
	require.NoError(t, err)
	assert.Equal(t, "rsScore1M", again[0])
}

func TestResetCategoryClearsOnlyItsFields(t *testing.T) {
	store := newMemStore()
	store.seed(&contracts.FilterSet{
		OwnerID: "u1", Name: "growth", Included: true,
		Criteria: map[string]contracts.Criterion{
			"revenueGrowthYY": contracts.RangeCriterion(0.1, 2),
			"epsGrowthYY":     contracts.RangeCriterion(0.2, 3),
			"price":           contracts.RangeCriterion(5, 100),
			"sector":          {Values: []string{"Technology"}},
		},
	})

	err := ResetCategory(context.Background(), store, "u1", "growth", "FundGrowth")
	require.NoError(t, err)

	fs, err := store.Get(context.Background(), "u1", "growth")
	require.NoError(t, err)
	assert.NotContains(t, fs.Criteria, "revenueGrowthYY")
	assert.NotContains(t, fs.Criteria, "epsGrowthYY")
	assert.Contains(t, fs.Criteria, "price")
	assert.Contains(t, fs.Criteria, "sector")
}

func TestResetCategoryUnknownTag(t *testing.T) {
	store := newMemStore()
	err := ResetCategory(context.Background(), store, "u1", "growth", "Momentum")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestResetAll(t *testing.T) {
	store := newMemStore()
	store.seed(&contracts.FilterSet{
		OwnerID: "u1", Name: "growth", Included: true,
		Criteria: map[string]contracts.Criterion{
			"price":   contracts.RangeCriterion(5, 100),
			"sector":  {Values: []string{"Technology"}},
			"ma50":    {Position: "abv200"},
			"newHigh": {Flag: true},
		},
	})

	err := ResetAll(context.Background(), store, "u1", "growth")
	require.NoError(t, err)

	fs, err := store.Get(context.Background(), "u1", "growth")
	require.NoError(t, err)
	require.NotNil(t, fs) // identity survives a full reset
	assert.Empty(t, fs.Criteria)
	assert.True(t, fs.Included)

	// Resetting an already-empty set is a no-op, not an error.
	assert.NoError(t, ResetAll(context.Background(), store, "u1", "growth"))
}

func TestResetAllClearsRetiredAttributes(t *testing.T) {
	// A row can hold criteria under names the vocabulary no longer carries.
	// Such entries make the set uncompilable, and no criterion write can
	// remove them; the whole-set reset must be the recovery path.
	store := newMemStore()
	store.seed(&contracts.FilterSet{
		OwnerID: "u1", Name: "legacy", Included: true,
		Criteria: map[string]contracts.Criterion{
			"price":       contracts.RangeCriterion(5, 100),
			"sharpeRatio": contracts.RangeCriterion(1, 2),
		},
	})

	fs, err := store.Get(context.Background(), "u1", "legacy")
	require.NoError(t, err)
	_, err = Compile(fs)
	require.ErrorIs(t, err, ErrUnknownAttribute)

	require.NoError(t, ResetAll(context.Background(), store, "u1", "legacy"))

	fs, err = store.Get(context.Background(), "u1", "legacy")
	require.NoError(t, err)
	assert.Empty(t, fs.Criteria)

	_, err = Compile(fs)
	assert.NoError(t, err)
}
