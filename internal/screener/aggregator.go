package screener

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/pkg/logger"
	"github.com/marketlens/screener/pkg/metrics"
)

// defaultFanOut bounds concurrent per-set executions when the caller
// passes no limit.
const defaultFanOut = 4

// Aggregate compiles and executes every included filter set against the
// same hidden-symbol snapshot, unions the results keyed by symbol, and
// decorates each surviving record with the names of the sets that matched
// it. A set that fails to compile or execute is logged and skipped;
// partial results beat aborting the whole aggregation.
func Aggregate(ctx context.Context, corpus contracts.CorpusReader, sets []*contracts.FilterSet, hidden map[string]struct{}, fanOut int, log *logger.Logger, rec *metrics.Recorder) ([]contracts.MatchRecord, error) {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}

	// One result slot per set; failed sets leave theirs nil.
	perSet := make([][]contracts.MatchRecord, len(sets))

	g := new(errgroup.Group)
	g.SetLimit(fanOut)
	for i, fs := range sets {
		i, fs := i, fs
		g.Go(func() error {
			pred, err := Compile(fs)
			if err != nil {
				log.WithError(err).WithField("screener", fs.Name).Warn("Skipping filter set: compile failed")
				rec.RecordSkippedSet()
				return nil
			}
			matches, err := ExecuteSet(ctx, corpus, pred, hidden)
			if err != nil {
				log.WithError(err).WithField("screener", fs.Name).Warn("Skipping filter set: execution failed")
				rec.RecordSkippedSet()
				return nil
			}
			perSet[i] = matches
			return nil
		})
	}
	// Per-set failures are swallowed above, so Wait cannot fail.
	_ = g.Wait()

	// Union keyed by symbol identity. Two sets can emit identical
	// projections for the same symbol; they must still collapse to one
	// record, so structural equality is never consulted.
	membership := make(map[string][]string)
	position := make(map[string]int)
	combined := make([]contracts.MatchRecord, 0)

	for i, matches := range perSet {
		name := sets[i].Name
		for _, m := range matches {
			if _, seen := position[m.Symbol]; !seen {
				position[m.Symbol] = len(combined)
				combined = append(combined, m)
			}
			membership[m.Symbol] = append(membership[m.Symbol], name)
		}
	}

	for i := range combined {
		names := membership[combined[i].Symbol]
		combined[i].Screeners = names
		combined[i].IsDuplicate = len(names) > 1
	}

	return combined, nil
}
