package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Numeric is a screenable numeric value that may be absent from the corpus.
// The ingestion feed marks unknown values with "None" or "-" (and the odd
// NaN), so a plain float64 cannot carry the distinction.
type Numeric struct {
	Value float64
	Valid bool
}

// N wraps a known float64 value.
func N(v float64) Numeric {
	return Numeric{Value: v, Valid: true}
}

// MarshalJSON emits the raw number, or null when the value is unknown.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts numbers and numeric strings. The corpus sentinels
// "None", "-", empty string and JSON null all decode as invalid.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	*n = Numeric{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) {
			// Sentinel or garbage string: treat as absent, not an error.
			return nil
		}
		*n = Numeric{Value: v, Valid: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil
	}
	if math.IsNaN(v) {
		return nil
	}
	*n = Numeric{Value: v, Valid: true}
	return nil
}

// Quote is one daily OHLC observation keyed by its trade date ("2006-01-02").
type Quote struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// FinancialSnapshot is one quarterly balance-sheet snapshot. Snapshots are
// appended in reporting order; only the most recent one is screenable.
type FinancialSnapshot struct {
	Period             string  `json:"period"`
	ROE                Numeric `json:"roe"`
	ROA                Numeric `json:"roa"`
	CurrentRatio       Numeric `json:"current_ratio"`
	CurrentAssets      Numeric `json:"current_assets"`
	CurrentLiabilities Numeric `json:"current_liabilities"`
	CurrentDebt        Numeric `json:"current_debt"`
	Cash               Numeric `json:"cash"`
	FreeCashFlow       Numeric `json:"free_cash_flow"`
	GrossMargin        Numeric `json:"gross_margin"`
	NetMargin          Numeric `json:"net_margin"`
	DebtEquity         Numeric `json:"debt_equity"`
	BookValue          Numeric `json:"book_value"`
}

// AssetRecord is one tradable instrument as delivered by the ingestion feed.
// Read-only to the screener core.
type AssetRecord struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Country  string `json:"country"`
	Sector   string `json:"sector"`

	IPOYear   Numeric `json:"ipo_year"`
	MarketCap Numeric `json:"market_cap"`

	// Valuation ratios
	PE        Numeric `json:"pe"`
	ForwardPE Numeric `json:"forward_pe"`
	PEG       Numeric `json:"peg"`
	PB        Numeric `json:"pb"`
	PS        Numeric `json:"ps"`

	// Growth, stored as fractions (0.25 = 25%)
	RevenueGrowthQQ  Numeric `json:"revenue_growth_qq"`
	RevenueGrowthYY  Numeric `json:"revenue_growth_yy"`
	EarningsGrowthQQ Numeric `json:"earnings_growth_qq"`
	EarningsGrowthYY Numeric `json:"earnings_growth_yy"`
	EPSGrowthQQ      Numeric `json:"eps_growth_qq"`
	EPSGrowthYY      Numeric `json:"eps_growth_yy"`

	// Volume over four trailing windows
	AvgVolume5  Numeric `json:"avg_volume_5"`
	AvgVolume20 Numeric `json:"avg_volume_20"`
	AvgVolume60 Numeric `json:"avg_volume_60"`
	AvgVolume90 Numeric `json:"avg_volume_90"`
	RelVolume5  Numeric `json:"rel_volume_5"`
	RelVolume20 Numeric `json:"rel_volume_20"`
	RelVolume60 Numeric `json:"rel_volume_60"`
	RelVolume90 Numeric `json:"rel_volume_90"`

	// Relative-strength percentiles
	RSScore1M Numeric `json:"rs_score_1m"`
	RSScore3M Numeric `json:"rs_score_3m"`
	RSScore6M Numeric `json:"rs_score_6m"`

	// Daily quote series, insertion order chronological
	Quotes []Quote `json:"quotes"`

	// Cached moving averages
	MA10  Numeric `json:"ma_10"`
	MA20  Numeric `json:"ma_20"`
	MA50  Numeric `json:"ma_50"`
	MA200 Numeric `json:"ma_200"`

	AllTimeHigh    Numeric `json:"all_time_high"`
	AllTimeLow     Numeric `json:"all_time_low"`
	PctOff52WkHigh Numeric `json:"pct_off_52wk_high"`
	PctOff52WkLow  Numeric `json:"pct_off_52wk_low"`

	// Per-period percent change, stored as fractions
	Change1D  Numeric `json:"change_1d"`
	Change1W  Numeric `json:"change_1w"`
	Change1M  Numeric `json:"change_1m"`
	Change4M  Numeric `json:"change_4m"`
	Change6M  Numeric `json:"change_6m"`
	Change1Y  Numeric `json:"change_1y"`
	ChangeYTD Numeric `json:"change_ytd"`

	Financials []FinancialSnapshot `json:"financials,omitempty"`
}

// LatestClose returns the close of the most recent quote. The series is
// keyed by ISO date strings, so "most recent" is decided by comparing the
// keys rather than trusting slice position.
func (a *AssetRecord) LatestClose() Numeric {
	latest := Numeric{}
	latestDate := ""
	for _, q := range a.Quotes {
		if q.Date > latestDate {
			latestDate = q.Date
			latest = N(q.Close)
		}
	}
	return latest
}

// LatestFinancials returns the most recent quarterly snapshot.
func (a *AssetRecord) LatestFinancials() (FinancialSnapshot, bool) {
	if len(a.Financials) == 0 {
		return FinancialSnapshot{}, false
	}
	return a.Financials[len(a.Financials)-1], true
}
