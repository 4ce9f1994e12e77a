package screener

import (
	"context"
	"fmt"
	"sort"

	"github.com/marketlens/screener/internal/contracts"
)

// categoryFields is the closed reset vocabulary: tag -> criterion fields it
// clears. Valuation ratios and balance-sheet metrics reset individually;
// the grouped tags cover their whole families.
var categoryFields = map[string][]string{
	"price":     {"price"},
	"marketCap": {"marketCap"},
	"IPO":       {"ipoYear"},
	"sector":    {"sector"},
	"exchange":  {"exchange"},
	"country":   {"country"},

	"pe":        {"pe"},
	"forwardPE": {"forwardPE"},
	"peg":       {"peg"},
	"pb":        {"pb"},
	"ps":        {"ps"},

	"FundGrowth": {
		"revenueGrowthQQ", "revenueGrowthYY",
		"earningsGrowthQQ", "earningsGrowthYY",
		"epsGrowthQQ", "epsGrowthYY",
	},

	"PricePerformance": {
		"performance",
		"perf1D", "perf1W", "perf1M", "perf4M", "perf6M", "perf1Y", "perfYTD",
	},

	"RSscore": {"rsScore1M", "rsScore3M", "rsScore6M"},
	"Volume":  {"relVolume5", "relVolume20", "relVolume60", "relVolume90"},
	"ADV":     {"avgVolume5", "avgVolume20", "avgVolume60", "avgVolume90"},

	"roe":                {"roe"},
	"roa":                {"roa"},
	"currentRatio":       {"currentRatio"},
	"currentAssets":      {"currentAssets"},
	"currentLiabilities": {"currentLiabilities"},
	"currentDebt":        {"currentDebt"},
	"cash":               {"cash"},
	"freeCashFlow":       {"freeCashFlow"},
	"grossMargin":        {"grossMargin"},
	"netMargin":          {"netMargin"},
	"debtEquity":         {"debtEquity"},
	"bookValue":          {"bookValue"},
}

// CategoryFields returns the criterion fields a reset tag covers.
func CategoryFields(tag string) ([]string, error) {
	fields, ok := categoryFields[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, tag)
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out, nil
}

// Categories returns the reset vocabulary, sorted.
func Categories() []string {
	tags := make([]string, 0, len(categoryFields))
	for tag := range categoryFields {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ResetCategory clears exactly the fields the tag maps to, leaving every
// other criterion untouched.
func ResetCategory(ctx context.Context, store contracts.FilterSetStore, ownerID, name, tag string) error {
	fields, err := CategoryFields(tag)
	if err != nil {
		return err
	}
	if err := store.UnsetFields(ctx, ownerID, name, fields); err != nil {
		return fmt.Errorf("unset %q fields: %w", tag, err)
	}
	return nil
}

// ResetAll clears every stored criterion, keeping only the (owner, name)
// identity. Clearing the whole document rather than unsetting the current
// vocabulary also flushes entries stored under retired attribute names,
// which would otherwise block compilation forever. Idempotent: resetting an
// already-empty set is a no-op.
func ResetAll(ctx context.Context, store contracts.FilterSetStore, ownerID, name string) error {
	if err := store.ClearCriteria(ctx, ownerID, name); err != nil {
		return fmt.Errorf("clear criteria: %w", err)
	}
	return nil
}
