package screener

import (
	"fmt"
	"sort"

	"github.com/marketlens/screener/internal/contracts"
)

// Kind classifies how a criterion's stored value is interpreted.
type Kind int

const (
	// KindRange is a concrete (lo, hi) pair tested exclusively on both ends.
	KindRange Kind = iota
	// KindRangeTag is a range plus a period selector picking the per-period
	// change field the range applies to.
	KindRangeTag
	// KindCategorical is a membership test against a set of string values.
	KindCategorical
	// KindPosition is an ordering comparison between two moving averages.
	KindPosition
	// KindFlag is a boolean marker evaluated only when set.
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindRange:
		return "range"
	case KindRangeTag:
		return "range+period"
	case KindCategorical:
		return "categorical"
	case KindPosition:
		return "position"
	case KindFlag:
		return "flag"
	}
	return "unknown"
}

// FieldFunc extracts one screenable numeric from an asset record.
type FieldFunc func(*contracts.AssetRecord) contracts.Numeric

// PositionRule is one cross-field comparison: Base ordered against Other.
type PositionRule struct {
	Base  FieldFunc
	Other FieldFunc
	Above bool
}

// Attribute is one entry of the criterion schema: the kind, the accessor(s)
// into AssetRecord, the caller-unit conversion and the resolution floor.
// The schema is pure data; the compiler and resolver consult it instead of
// switching on attribute names.
type Attribute struct {
	Name  string
	Kind  Kind
	Scale float64 // caller units -> internal units; 0 means no conversion
	// FloorLo is applied to a lower bound resolved from corpus extremes,
	// never to a caller-supplied bound. It also guarantees a resolved pair
	// can't collide with the legacy (0,0) inactivity sentinel.
	FloorLo   float64
	Field     FieldFunc
	Term      func(*contracts.AssetRecord) string
	Periods   map[string]FieldFunc
	Positions map[string]PositionRule
}

// ConvertInput maps a caller-supplied bound into internal units.
func (at Attribute) ConvertInput(v float64) float64 {
	if at.Scale == 0 {
		return v
	}
	return v * at.Scale
}

const (
	// Currency-denominated corpus fields are stored in thousands.
	scaleThousands = 1000
	// Percent inputs are stored as fractions.
	scalePercent = 0.01
)

// Change periods shared by the tagged performance range and the per-period
// range attributes.
var periodFields = map[string]FieldFunc{
	"1D":  func(a *contracts.AssetRecord) contracts.Numeric { return a.Change1D },
	"1W":  func(a *contracts.AssetRecord) contracts.Numeric { return a.Change1W },
	"1M":  func(a *contracts.AssetRecord) contracts.Numeric { return a.Change1M },
	"4M":  func(a *contracts.AssetRecord) contracts.Numeric { return a.Change4M },
	"6M":  func(a *contracts.AssetRecord) contracts.Numeric { return a.Change6M },
	"1Y":  func(a *contracts.AssetRecord) contracts.Numeric { return a.Change1Y },
	"YTD": func(a *contracts.AssetRecord) contracts.Numeric { return a.ChangeYTD },
}

var movingAverages = map[string]FieldFunc{
	"10":  func(a *contracts.AssetRecord) contracts.Numeric { return a.MA10 },
	"20":  func(a *contracts.AssetRecord) contracts.Numeric { return a.MA20 },
	"50":  func(a *contracts.AssetRecord) contracts.Numeric { return a.MA50 },
	"200": func(a *contracts.AssetRecord) contracts.Numeric { return a.MA200 },
}

// maPositions builds the position vocabulary for one moving-average
// attribute: abvN / blwN against every other cached average.
func maPositions(self string) map[string]PositionRule {
	base := movingAverages[self]
	rules := make(map[string]PositionRule)
	for window, other := range movingAverages {
		if window == self {
			continue
		}
		rules["abv"+window] = PositionRule{Base: base, Other: other, Above: true}
		rules["blw"+window] = PositionRule{Base: base, Other: other, Above: false}
	}
	return rules
}

// financial lifts an accessor on the latest quarterly snapshot into a
// FieldFunc; assets without financials read as absent.
func financial(get func(contracts.FinancialSnapshot) contracts.Numeric) FieldFunc {
	return func(a *contracts.AssetRecord) contracts.Numeric {
		snap, ok := a.LatestFinancials()
		if !ok {
			return contracts.Numeric{}
		}
		return get(snap)
	}
}

// attributes is the full criterion schema.
var attributes = []Attribute{
	// Identity
	{Name: "sector", Kind: KindCategorical, Term: func(a *contracts.AssetRecord) string { return a.Sector }},
	{Name: "exchange", Kind: KindCategorical, Term: func(a *contracts.AssetRecord) string { return a.Exchange }},
	{Name: "country", Kind: KindCategorical, Term: func(a *contracts.AssetRecord) string { return a.Country }},

	// Price is derived from the quote series, not a stored scalar.
	{Name: "price", Kind: KindRange, Field: (*contracts.AssetRecord).LatestClose},
	{Name: "marketCap", Kind: KindRange, Scale: scaleThousands,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.MarketCap }},
	{Name: "ipoYear", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.IPOYear }},

	// Valuation ratios
	{Name: "pe", Kind: KindRange, FloorLo: 1,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.PE }},
	{Name: "forwardPE", Kind: KindRange, FloorLo: 1,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.ForwardPE }},
	{Name: "peg", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.PEG }},
	{Name: "pb", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.PB }},
	{Name: "ps", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.PS }},

	// Growth, caller input in percent
	{Name: "revenueGrowthQQ", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RevenueGrowthQQ }},
	{Name: "revenueGrowthYY", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RevenueGrowthYY }},
	{Name: "earningsGrowthQQ", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.EarningsGrowthQQ }},
	{Name: "earningsGrowthYY", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.EarningsGrowthYY }},
	{Name: "epsGrowthQQ", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.EPSGrowthQQ }},
	{Name: "epsGrowthYY", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.EPSGrowthYY }},

	// Average daily volume, caller input in thousands of shares
	{Name: "avgVolume5", Kind: KindRange, Scale: scaleThousands,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.AvgVolume5 }},
	{Name: "avgVolume20", Kind: KindRange, Scale: scaleThousands,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.AvgVolume20 }},
	{Name: "avgVolume60", Kind: KindRange, Scale: scaleThousands,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.AvgVolume60 }},
	{Name: "avgVolume90", Kind: KindRange, Scale: scaleThousands,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.AvgVolume90 }},

	// Relative volume
	{Name: "relVolume5", Kind: KindRange, FloorLo: 0.1,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RelVolume5 }},
	{Name: "relVolume20", Kind: KindRange, FloorLo: 0.1,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RelVolume20 }},
	{Name: "relVolume60", Kind: KindRange, FloorLo: 0.1,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RelVolume60 }},
	{Name: "relVolume90", Kind: KindRange, FloorLo: 0.1,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RelVolume90 }},

	// Relative-strength percentiles
	{Name: "rsScore1M", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RSScore1M }},
	{Name: "rsScore3M", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RSScore3M }},
	{Name: "rsScore6M", Kind: KindRange,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.RSScore6M }},

	// Distance from 52-week extremes, caller input in percent
	{Name: "pctOff52WkHigh", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.PctOff52WkHigh }},
	{Name: "pctOff52WkLow", Kind: KindRange, Scale: scalePercent,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.PctOff52WkLow }},

	// Price performance: one tagged range plus per-period ranges
	{Name: "performance", Kind: KindRangeTag, Scale: scalePercent, Periods: periodFields},
	{Name: "perf1D", Kind: KindRange, Scale: scalePercent, Field: periodFields["1D"]},
	{Name: "perf1W", Kind: KindRange, Scale: scalePercent, Field: periodFields["1W"]},
	{Name: "perf1M", Kind: KindRange, Scale: scalePercent, Field: periodFields["1M"]},
	{Name: "perf4M", Kind: KindRange, Scale: scalePercent, Field: periodFields["4M"]},
	{Name: "perf6M", Kind: KindRange, Scale: scalePercent, Field: periodFields["6M"]},
	{Name: "perf1Y", Kind: KindRange, Scale: scalePercent, Field: periodFields["1Y"]},
	{Name: "perfYTD", Kind: KindRange, Scale: scalePercent, Field: periodFields["YTD"]},

	// Moving-average ordering
	{Name: "ma10", Kind: KindPosition, Positions: maPositions("10")},
	{Name: "ma20", Kind: KindPosition, Positions: maPositions("20")},
	{Name: "ma50", Kind: KindPosition, Positions: maPositions("50")},
	{Name: "ma200", Kind: KindPosition, Positions: maPositions("200")},

	// 52-week extreme flags
	{Name: "newHigh", Kind: KindFlag,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.AllTimeHigh }},
	{Name: "newLow", Kind: KindFlag,
		Field: func(a *contracts.AssetRecord) contracts.Numeric { return a.AllTimeLow }},

	// Latest quarterly snapshot
	{Name: "roe", Kind: KindRange, Scale: scalePercent,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.ROE })},
	{Name: "roa", Kind: KindRange, Scale: scalePercent,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.ROA })},
	{Name: "currentRatio", Kind: KindRange,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.CurrentRatio })},
	{Name: "currentAssets", Kind: KindRange, Scale: scaleThousands,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.CurrentAssets })},
	{Name: "currentLiabilities", Kind: KindRange, Scale: scaleThousands,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.CurrentLiabilities })},
	{Name: "currentDebt", Kind: KindRange, Scale: scaleThousands,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.CurrentDebt })},
	{Name: "cash", Kind: KindRange, Scale: scaleThousands,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.Cash })},
	{Name: "freeCashFlow", Kind: KindRange, Scale: scaleThousands,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.FreeCashFlow })},
	{Name: "grossMargin", Kind: KindRange, Scale: scalePercent,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.GrossMargin })},
	{Name: "netMargin", Kind: KindRange, Scale: scalePercent,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.NetMargin })},
	{Name: "debtEquity", Kind: KindRange,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.DebtEquity })},
	{Name: "bookValue", Kind: KindRange,
		Field: financial(func(s contracts.FinancialSnapshot) contracts.Numeric { return s.BookValue })},
}

var attributeIndex = func() map[string]Attribute {
	idx := make(map[string]Attribute, len(attributes))
	for _, at := range attributes {
		if _, dup := idx[at.Name]; dup {
			panic(fmt.Sprintf("duplicate schema attribute %q", at.Name))
		}
		idx[at.Name] = at
	}
	return idx
}()

// LookupAttribute returns the schema entry for name.
func LookupAttribute(name string) (Attribute, error) {
	at, ok := attributeIndex[name]
	if !ok {
		return Attribute{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return at, nil
}

// Attributes returns the schema sorted by attribute name.
func Attributes() []Attribute {
	out := make([]Attribute, len(attributes))
	copy(out, attributes)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AttributeNames returns every schema attribute name, sorted.
func AttributeNames() []string {
	names := make([]string, 0, len(attributes))
	for _, at := range attributes {
		names = append(names, at.Name)
	}
	sort.Strings(names)
	return names
}

// RangeAttributes returns the attributes eligible for bound resolution.
func RangeAttributes() []Attribute {
	out := make([]Attribute, 0, len(attributes))
	for _, at := range Attributes() {
		if at.Kind == KindRange {
			out = append(out, at)
		}
	}
	return out
}
