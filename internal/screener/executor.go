package screener

import (
	"context"
	"fmt"

	"github.com/marketlens/screener/internal/contracts"
)

// ExecuteSet runs one compiled predicate over the corpus, drops the
// caller's hidden symbols and projects the survivors. The hidden-symbol
// exclusion is injected here rather than compiled into the predicate so
// the compiler stays a pure function of the filter set.
//
// No match is not an error: the result is an empty slice.
func ExecuteSet(ctx context.Context, corpus contracts.CorpusReader, pred Predicate, hidden map[string]struct{}) ([]contracts.MatchRecord, error) {
	matches := make([]contracts.MatchRecord, 0)

	err := corpus.ScanAssets(ctx, func(a *contracts.AssetRecord) error {
		if _, isHidden := hidden[a.Symbol]; isHidden {
			return nil
		}
		if !pred(a) {
			return nil
		}
		matches = append(matches, projectMatch(a))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	return matches, nil
}

// projectMatch maps an asset record to the fixed result shape.
func projectMatch(a *contracts.AssetRecord) contracts.MatchRecord {
	return contracts.MatchRecord{
		Symbol:    a.Symbol,
		Name:      a.Name,
		Exchange:  a.Exchange,
		Sector:    a.Sector,
		Country:   a.Country,
		Price:     a.LatestClose(),
		MarketCap: a.MarketCap,
		PE:        a.PE,
		PB:        a.PB,
		PS:        a.PS,
		RSScore1M: a.RSScore1M,
		RSScore3M: a.RSScore3M,
		RSScore6M: a.RSScore6M,
	}
}
