package contracts

import "time"

// Criterion is one stored filter dimension. The attribute it is stored
// under decides which of the fields are meaningful: ranges use Lo/Hi
// (Period too for the tagged performance range), categorical criteria use
// Values, moving-average criteria use Position, and flag criteria use Flag.
type Criterion struct {
	Lo       float64  `json:"lo,omitempty"`
	Hi       float64  `json:"hi,omitempty"`
	Period   string   `json:"period,omitempty"`
	Values   []string `json:"values,omitempty"`
	Position string   `json:"position,omitempty"`
	Flag     bool     `json:"flag,omitempty"`
}

// IsZeroRange reports whether the stored pair is the legacy (0,0)
// inactivity sentinel. A criterion is normally active by presence in the
// set, but rows written by the old backend persist unset ranges as (0,0)
// and the compiler must keep skipping them.
func (c Criterion) IsZeroRange() bool {
	return c.Lo == 0 && c.Hi == 0
}

// RangeCriterion builds a concrete range criterion.
func RangeCriterion(lo, hi float64) Criterion {
	return Criterion{Lo: lo, Hi: hi}
}

// PeriodRangeCriterion builds a range criterion bound to a change period.
func PeriodRangeCriterion(lo, hi float64, period string) Criterion {
	return Criterion{Lo: lo, Hi: hi, Period: period}
}

// FilterSet is a user-owned, named bundle of criteria. (OwnerID, Name) is
// unique per owner. Included controls whether the combined view considers
// the set.
type FilterSet struct {
	OwnerID   string               `json:"owner_id"`
	Name      string               `json:"name"`
	Included  bool                 `json:"included"`
	Criteria  map[string]Criterion `json:"criteria"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Clone returns a deep copy. Compilation must not observe later mutations
// of the stored set.
func (fs *FilterSet) Clone() *FilterSet {
	cp := *fs
	cp.Criteria = make(map[string]Criterion, len(fs.Criteria))
	for k, v := range fs.Criteria {
		if v.Values != nil {
			vals := make([]string, len(v.Values))
			copy(vals, v.Values)
			v.Values = vals
		}
		cp.Criteria[k] = v
	}
	return &cp
}

// MatchRecord is the fixed projection of a matching asset. Screeners and
// IsDuplicate are populated only in the combined (multi-set) view.
type MatchRecord struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
	Country  string `json:"country"`

	Price     Numeric `json:"price"`
	MarketCap Numeric `json:"market_cap"`
	PE        Numeric `json:"pe"`
	PB        Numeric `json:"pb"`
	PS        Numeric `json:"ps"`
	RSScore1M Numeric `json:"rs_score_1m"`
	RSScore3M Numeric `json:"rs_score_3m"`
	RSScore6M Numeric `json:"rs_score_6m"`

	Screeners   []string `json:"screeners,omitempty"`
	IsDuplicate bool     `json:"is_duplicate,omitempty"`
}

// StoredRange is the concrete pair written back by bound resolution, in
// internal units.
type StoredRange struct {
	Attribute string  `json:"attribute"`
	Lo        float64 `json:"lo"`
	Hi        float64 `json:"hi"`
	Period    string  `json:"period,omitempty"`
}
