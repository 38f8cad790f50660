package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrices implementa ports.PriceProvider con respuestas fijas por símbolo.
type fakePrices struct {
	mu      sync.Mutex
	candles map[string][]domain.Candle
	errs    map[string]error
	calls   []string
}

func (f *fakePrices) FetchCandles(_ context.Context, symbol string, _, _ time.Time) ([]domain.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.candles[symbol], nil
}

func d(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func tr(symbol, purchase string) domain.PortfolioTrade {
	return domain.PortfolioTrade{Symbol: symbol, PurchaseDate: d(purchase)}
}

func series(buy, sell float64) []domain.Candle {
	return []domain.Candle{
		{Date: d("2019-01-02"), Open: buy, Close: buy},
		{Date: d("2019-12-31"), Open: sell, Close: sell},
	}
}

func TestCalculateAnnualizedReturns_Scenario(t *testing.T) {
	prices := &fakePrices{candles: map[string][]domain.Candle{
		"AAPL": {
			{Date: d("2019-01-02"), Open: 150, Close: 155},
			{Date: d("2019-01-09"), Open: 153, Close: 160},
		},
	}}
	m := New(Config{RunID: "run-1"}, prices)

	report, err := m.CalculateAnnualizedReturns(context.Background(), []domain.PortfolioTrade{tr("AAPL", "2019-01-02")}, d("2019-01-09"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)

	returns := report.Returns()
	require.Len(t, returns, 1)
	assert.Equal(t, "AAPL", returns[0].Symbol)
	assert.InDelta(t, math.Pow(160.0/150.0, 365.0/7.0)-1, returns[0].AnnualizedReturn, 1e-9)
}

func TestCalculateAnnualizedReturns_SortedDescending(t *testing.T) {
	prices := &fakePrices{candles: map[string][]domain.Candle{
		"AAPL":  series(100, 150),
		"MSFT":  series(100, 300),
		"GOOGL": series(100, 90),
	}}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{tr("AAPL", "2019-01-02"), tr("MSFT", "2019-01-02"), tr("GOOGL", "2019-01-02")}
	report, err := m.CalculateAnnualizedReturns(context.Background(), trades, d("2019-12-31"))
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)

	returns := report.Returns()
	require.Len(t, returns, 3)
	assert.Equal(t, "MSFT", returns[0].Symbol)
	assert.Equal(t, "AAPL", returns[1].Symbol)
	assert.Equal(t, "GOOGL", returns[2].Symbol)
	assert.Less(t, returns[2].AnnualizedReturn, 0.0)
}

func TestCalculateAnnualizedReturns_FailureDoesNotAbortBatch(t *testing.T) {
	prices := &fakePrices{
		candles: map[string][]domain.Candle{
			"AAPL": series(100, 150),
			"MSFT": series(100, 120),
		},
		errs: map[string]error{
			"BAD":  fmt.Errorf("tiingo: %w", domain.ErrNetwork),
			"GARB": fmt.Errorf("tiingo: %w", domain.ErrParse),
		},
	}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{
		tr("BAD", "2019-01-02"),
		tr("AAPL", "2019-01-02"),
		tr("GARB", "2019-01-02"),
		tr("MSFT", "2019-01-02"),
	}
	report, err := m.CalculateAnnualizedReturns(context.Background(), trades, d("2019-12-31"))
	require.NoError(t, err)

	assert.Len(t, report.Returns(), 2)
	assert.Equal(t, 2, report.Count(domain.OutcomeFailed))
	omitted := report.Omitted()
	require.Len(t, omitted, 2)
	assert.Equal(t, "BAD", omitted[0].Trade.Symbol)
	assert.ErrorIs(t, omitted[0].Err, domain.ErrNetwork)
	assert.ErrorIs(t, omitted[1].Err, domain.ErrParse)
}

func TestCalculateAnnualizedReturns_EmptyCandlesReportedAsNoData(t *testing.T) {
	prices := &fakePrices{candles: map[string][]domain.Candle{
		"AAPL": series(100, 150),
	}}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{tr("AAPL", "2019-01-02"), tr("DELISTED", "2019-01-02")}
	report, err := m.CalculateAnnualizedReturns(context.Background(), trades, d("2019-12-31"))
	require.NoError(t, err)

	require.Len(t, report.Returns(), 1)
	omitted := report.Omitted()
	require.Len(t, omitted, 1)
	assert.Equal(t, domain.OutcomeNoData, omitted[0].Status)
	assert.Equal(t, "DELISTED", omitted[0].Trade.Symbol)
	assert.NoError(t, omitted[0].Err)
}

func TestCalculateAnnualizedReturns_SameDayAbortsBeforeFetch(t *testing.T) {
	prices := &fakePrices{}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{tr("AAPL", "2019-01-02"), tr("MSFT", "2019-01-09")}
	_, err := m.CalculateAnnualizedReturns(context.Background(), trades, d("2019-01-09"))
	assert.ErrorIs(t, err, domain.ErrInvalidHoldingPeriod)
	assert.Empty(t, prices.calls)
}

func TestCalculateAnnualizedReturns_EndBeforePurchaseAbortsBeforeFetch(t *testing.T) {
	prices := &fakePrices{}
	m := New(Config{}, prices)

	_, err := m.CalculateAnnualizedReturns(context.Background(), []domain.PortfolioTrade{tr("AAPL", "2019-02-01")}, d("2019-01-09"))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	assert.Empty(t, prices.calls)
}

func TestCalculateAnnualizedReturns_ZeroBuyPriceIsFatal(t *testing.T) {
	prices := &fakePrices{candles: map[string][]domain.Candle{
		"AAPL": series(100, 150),
		"ZERO": series(0, 10),
	}}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{tr("AAPL", "2019-01-02"), tr("ZERO", "2019-01-02")}
	_, err := m.CalculateAnnualizedReturns(context.Background(), trades, d("2019-12-31"))
	assert.ErrorIs(t, err, domain.ErrInvalidBuyPrice)
}

func TestCalculateAnnualizedReturns_OverflowRecordedAsFailed(t *testing.T) {
	prices := &fakePrices{candles: map[string][]domain.Candle{
		"AAPL": series(100, 150),
		"PENNY": {
			{Date: d("2019-01-02"), Open: 1, Close: 1},
			{Date: d("2019-01-03"), Open: 10, Close: 10},
		},
	}}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{tr("PENNY", "2019-01-02"), tr("AAPL", "2018-01-02")}
	report, err := m.CalculateAnnualizedReturns(context.Background(), trades, d("2019-01-03"))
	require.NoError(t, err)

	returns := report.Returns()
	require.Len(t, returns, 1)
	assert.Equal(t, "AAPL", returns[0].Symbol)

	omitted := report.Omitted()
	require.Len(t, omitted, 1)
	assert.Equal(t, "PENNY", omitted[0].Trade.Symbol)
	assert.Equal(t, domain.OutcomeFailed, omitted[0].Status)
	assert.ErrorIs(t, omitted[0].Err, domain.ErrNonFiniteReturn)

	// El resto del batch sigue siendo serializable.
	_, err = json.MarshalIndent(returns, "", "  ")
	assert.NoError(t, err)
}

func TestCalculateAnnualizedReturns_CancelledContext(t *testing.T) {
	prices := &fakePrices{candles: map[string][]domain.Candle{"AAPL": series(100, 150)}}
	m := New(Config{}, prices)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.CalculateAnnualizedReturns(ctx, []domain.PortfolioTrade{tr("AAPL", "2019-01-02")}, d("2019-12-31"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateAnnualizedReturns_ConcurrentMatchesSequential(t *testing.T) {
	candles := map[string][]domain.Candle{}
	var trades []domain.PortfolioTrade
	for i := 0; i < 20; i++ {
		sym := fmt.Sprintf("S%02d", i)
		// Empates a propósito: i%5 produce retornos repetidos.
		candles[sym] = series(100, 100+float64(i%5)*10)
		trades = append(trades, tr(sym, "2019-01-02"))
	}
	trades = append(trades, tr("EMPTY", "2019-01-02"))

	seq := New(Config{Workers: 1}, &fakePrices{candles: candles})
	par := New(Config{Workers: 6}, &fakePrices{candles: candles})

	seqReport, err := seq.CalculateAnnualizedReturns(context.Background(), trades, d("2019-12-31"))
	require.NoError(t, err)
	parReport, err := par.CalculateAnnualizedReturns(context.Background(), trades, d("2019-12-31"))
	require.NoError(t, err)

	assert.Equal(t, seqReport.Returns(), parReport.Returns())
	require.Len(t, parReport.Outcomes, len(trades))
	for i, o := range parReport.Outcomes {
		assert.Equal(t, i, o.Index)
	}
}

func TestSymbolsByClosingPrice(t *testing.T) {
	prices := &fakePrices{
		candles: map[string][]domain.Candle{
			"AAPL":  series(100, 150),
			"MSFT":  series(100, 90),
			"GOOGL": series(100, 1200),
		},
		errs: map[string]error{"BAD": domain.ErrNetwork},
	}
	m := New(Config{}, prices)

	trades := []domain.PortfolioTrade{
		tr("AAPL", "2019-01-02"),
		tr("BAD", "2019-01-02"),
		tr("GOOGL", "2019-01-02"),
		tr("EMPTY", "2019-01-02"),
		tr("MSFT", "2019-01-02"),
	}
	symbols, err := m.SymbolsByClosingPrice(context.Background(), trades, d("2019-12-31"))
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "AAPL", "GOOGL"}, symbols)
}
