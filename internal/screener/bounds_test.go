package screener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
)

// stubExtremes returns a canned answer and records the lookup.
type stubExtremes struct {
	ext    Extremes
	err    error
	calls  int
	lastAt string
}

func (s *stubExtremes) Extremes(ctx context.Context, at Attribute, period string) (Extremes, error) {
	s.calls++
	s.lastAt = at.Name
	return s.ext, s.err
}

func f(v float64) *float64 { return &v }

func TestResolveBoundsBothSupplied(t *testing.T) {
	src := &stubExtremes{}

	got, err := ResolveBounds(context.Background(), src, "marketCap", "", f(5), f(100))
	require.NoError(t, err)

	// Caller units convert; no extremes lookup happens.
	assert.Equal(t, contracts.StoredRange{Attribute: "marketCap", Lo: 5000, Hi: 100000}, got)
	assert.Zero(t, src.calls)
}

func TestResolveBoundsFillsAbsentFromExtremes(t *testing.T) {
	src := &stubExtremes{ext: Extremes{Min: 2.5, Max: 480, Count: 1200}}

	got, err := ResolveBounds(context.Background(), src, "price", "", nil, f(50))
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Lo)
	assert.Equal(t, 50.0, got.Hi)
	assert.Equal(t, 1, src.calls)

	got, err = ResolveBounds(context.Background(), src, "price", "", f(10), nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Lo)
	assert.Equal(t, 480.0, got.Hi)
}

func TestResolveBoundsFloorsResolvedLoOnly(t *testing.T) {
	// A corpus with negative-earnings names has a negative PE minimum; the
	// resolved lower bound is floored to keep the stored pair meaningful.
	src := &stubExtremes{ext: Extremes{Min: -30, Max: 90, Count: 800}}

	got, err := ResolveBounds(context.Background(), src, "pe", "", nil, f(40))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Lo)

	// A caller-supplied bound is honored as given, below the floor or not.
	got, err = ResolveBounds(context.Background(), src, "pe", "", f(0.5), f(40))
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Lo)
}

func TestResolveBoundsTaggedPeriod(t *testing.T) {
	src := &stubExtremes{ext: Extremes{Min: -0.4, Max: 2.1, Count: 500}}

	got, err := ResolveBounds(context.Background(), src, "performance", "1M", f(5), nil)
	require.NoError(t, err)
	assert.Equal(t, "1M", got.Period)
	assert.InDelta(t, 0.05, got.Lo, 1e-12) // percent input
	assert.Equal(t, 2.1, got.Hi)

	_, err = ResolveBounds(context.Background(), src, "performance", "2W", f(5), nil)
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestResolveBoundsErrors(t *testing.T) {
	src := &stubExtremes{ext: Extremes{Min: 1, Max: 100, Count: 10}}

	_, err := ResolveBounds(context.Background(), src, "price", "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ResolveBounds(context.Background(), src, "price", "", f(50), f(50))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ResolveBounds(context.Background(), src, "price", "", f(80), f(20))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ResolveBounds(context.Background(), src, "sharpeRatio", "", f(0), f(1))
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	// Categorical attributes never take bounds.
	_, err = ResolveBounds(context.Background(), src, "sector", "", f(0), f(1))
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestResolveBoundsNoData(t *testing.T) {
	src := &stubExtremes{ext: Extremes{Count: 0}}

	_, err := ResolveBounds(context.Background(), src, "peg", "", nil, f(3))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestScanExtremesSkipsAbsentValues(t *testing.T) {
	a1 := asset("AAA", 10)
	a1.PE = contracts.N(8)
	a2 := asset("BBB", 20)
	// PE stays invalid: a "None" in the feed.
	a3 := asset("CCC", 30)
	a3.PE = contracts.N(42)

	src := ScanExtremes{Corpus: &memCorpus{assets: []contracts.AssetRecord{a1, a2, a3}}}
	at, _ := LookupAttribute("pe")

	ext, err := src.Extremes(context.Background(), at, "")
	require.NoError(t, err)
	assert.Equal(t, Extremes{Min: 8, Max: 42, Count: 2}, ext)
}

func TestScanExtremesEmptyCorpus(t *testing.T) {
	src := ScanExtremes{Corpus: &memCorpus{}}
	at, _ := LookupAttribute("pe")

	ext, err := src.Extremes(context.Background(), at, "")
	require.NoError(t, err)
	assert.Zero(t, ext.Count)
}

func TestScanExtremesCorpusFailure(t *testing.T) {
	src := ScanExtremes{Corpus: &memCorpus{err: assert.AnError}}
	at, _ := LookupAttribute("pe")

	_, err := src.Extremes(context.Background(), at, "")
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
}
