package screener

import (
	"context"
	"fmt"

	"github.com/marketlens/screener/internal/contracts"
)

// Extremes is the live minimum and maximum of one attribute across the
// corpus, counting only records with a known value.
type Extremes struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// ExtremesSource produces corpus extremes for an attribute. The direct
// implementation scans the corpus; the service layers a cache on top.
type ExtremesSource interface {
	Extremes(ctx context.Context, at Attribute, period string) (Extremes, error)
}

// ScanExtremes computes extremes with a full corpus scan. Sentinel values
// ("None", "-", NaN) never reach it: they decode as invalid Numerics and
// the accessor reports them as absent.
type ScanExtremes struct {
	Corpus contracts.CorpusReader
}

// Extremes scans the corpus for the attribute's live minimum and maximum.
func (s ScanExtremes) Extremes(ctx context.Context, at Attribute, period string) (Extremes, error) {
	field, err := resolveField(at, period)
	if err != nil {
		return Extremes{}, err
	}

	var ext Extremes
	err = s.Corpus.ScanAssets(ctx, func(a *contracts.AssetRecord) error {
		v := field(a)
		if !v.Valid {
			return nil
		}
		if ext.Count == 0 || v.Value < ext.Min {
			ext.Min = v.Value
		}
		if ext.Count == 0 || v.Value > ext.Max {
			ext.Max = v.Value
		}
		ext.Count++
		return nil
	})
	if err != nil {
		return Extremes{}, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}
	return ext, nil
}

// ResolveBounds turns a partial (lo, hi) request into a concrete stored
// range in internal units. Supplied bounds are unit-converted and otherwise
// untouched; an absent bound is filled from live corpus extremes and then
// floored per the attribute. Runs once, at write time, so the stored set
// always holds concrete numbers.
func ResolveBounds(ctx context.Context, src ExtremesSource, attribute, period string, lo, hi *float64) (contracts.StoredRange, error) {
	at, err := LookupAttribute(attribute)
	if err != nil {
		return contracts.StoredRange{}, err
	}
	if _, err := resolveField(at, period); err != nil {
		return contracts.StoredRange{}, err
	}
	if lo == nil && hi == nil {
		return contracts.StoredRange{}, fmt.Errorf("%w: no bounds supplied for %q", ErrInvalidRange, attribute)
	}

	out := contracts.StoredRange{Attribute: attribute, Period: period}

	var ext Extremes
	if lo == nil || hi == nil {
		ext, err = src.Extremes(ctx, at, period)
		if err != nil {
			return contracts.StoredRange{}, err
		}
		if ext.Count == 0 {
			return contracts.StoredRange{}, fmt.Errorf("%w: %q", ErrNoData, attribute)
		}
	}

	if lo != nil {
		out.Lo = at.ConvertInput(*lo)
	} else {
		out.Lo = ext.Min
		if at.FloorLo > 0 && out.Lo < at.FloorLo {
			out.Lo = at.FloorLo
		}
	}

	if hi != nil {
		out.Hi = at.ConvertInput(*hi)
	} else {
		out.Hi = ext.Max
	}

	if out.Lo >= out.Hi {
		return contracts.StoredRange{}, fmt.Errorf("%w: lo %g >= hi %g for %q", ErrInvalidRange, out.Lo, out.Hi, attribute)
	}

	return out, nil
}

// resolveField picks the accessor a bound request scans: the attribute
// field for plain ranges, the tagged period field for the performance
// range.
func resolveField(at Attribute, period string) (FieldFunc, error) {
	switch at.Kind {
	case KindRange:
		return at.Field, nil
	case KindRangeTag:
		field, ok := at.Periods[period]
		if !ok {
			return nil, fmt.Errorf("%w: period %q on %q", ErrUnknownAttribute, period, at.Name)
		}
		return field, nil
	}
	return nil, fmt.Errorf("%w: %q does not take bounds", ErrUnknownAttribute, at.Name)
}
