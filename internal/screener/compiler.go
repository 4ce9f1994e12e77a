package screener

import (
	"fmt"
	"sort"

	"github.com/marketlens/screener/internal/contracts"
)

// Predicate is a compiled boolean test over one asset record.
type Predicate func(*contracts.AssetRecord) bool

// Compile folds the set's active criteria into a single AND predicate.
// It is a pure function of the filter set: it never touches the corpus and
// never consults the caller's hidden symbols (the executor injects those).
//
// Inactive criteria are skipped rather than failing: ranges stored as the
// legacy (0,0) sentinel, empty categorical sets, empty positions and
// unset flags all compile to nothing.
func Compile(fs *contracts.FilterSet) (Predicate, error) {
	// Stable iteration keeps the emitted term order deterministic; match
	// semantics do not depend on it, short-circuit cost does.
	names := make([]string, 0, len(fs.Criteria))
	for name := range fs.Criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	terms := make([]Predicate, 0, len(names))
	for _, name := range names {
		at, err := LookupAttribute(name)
		if err != nil {
			return nil, err
		}
		term, active, err := compileTerm(at, fs.Criteria[name])
		if err != nil {
			return nil, err
		}
		if active {
			terms = append(terms, term)
		}
	}

	return func(a *contracts.AssetRecord) bool {
		for _, term := range terms {
			if !term(a) {
				return false
			}
		}
		return true
	}, nil
}

// compileTerm emits one predicate term for an active criterion. The second
// return is false when the criterion is inactive and contributes no term.
func compileTerm(at Attribute, c contracts.Criterion) (Predicate, bool, error) {
	switch at.Kind {
	case KindRange:
		if c.IsZeroRange() {
			return nil, false, nil
		}
		return rangeTerm(at.Field, c.Lo, c.Hi), true, nil

	case KindRangeTag:
		if c.IsZeroRange() {
			return nil, false, nil
		}
		field, ok := at.Periods[c.Period]
		if !ok {
			return nil, false, fmt.Errorf("%w: period %q on %q", ErrUnknownAttribute, c.Period, at.Name)
		}
		return rangeTerm(field, c.Lo, c.Hi), true, nil

	case KindCategorical:
		if len(c.Values) == 0 {
			return nil, false, nil
		}
		accepted := make(map[string]struct{}, len(c.Values))
		for _, v := range c.Values {
			accepted[v] = struct{}{}
		}
		term := at.Term
		return func(a *contracts.AssetRecord) bool {
			_, ok := accepted[term(a)]
			return ok
		}, true, nil

	case KindPosition:
		if c.Position == "" {
			return nil, false, nil
		}
		rule, ok := at.Positions[c.Position]
		if !ok {
			return nil, false, fmt.Errorf("%w: position %q on %q", ErrUnknownAttribute, c.Position, at.Name)
		}
		return func(a *contracts.AssetRecord) bool {
			base, other := rule.Base(a), rule.Other(a)
			if !base.Valid || !other.Valid {
				return false
			}
			if rule.Above {
				return base.Value > other.Value
			}
			return base.Value < other.Value
		}, true, nil

	case KindFlag:
		if !c.Flag {
			return nil, false, nil
		}
		extreme := at.Field
		return func(a *contracts.AssetRecord) bool {
			close, ext := a.LatestClose(), extreme(a)
			return close.Valid && ext.Valid && close.Value == ext.Value
		}, true, nil
	}

	return nil, false, fmt.Errorf("%w: %q", ErrUnknownAttribute, at.Name)
}

// rangeTerm is the shared strict-range test: bounds are exclusive on both
// ends, and records with an absent field never match.
func rangeTerm(field FieldFunc, lo, hi float64) Predicate {
	return func(a *contracts.AssetRecord) bool {
		v := field(a)
		return v.Valid && lo < v.Value && v.Value < hi
	}
}
