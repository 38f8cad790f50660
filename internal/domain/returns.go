package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DaysInYear es la aproximación fija de año calendario (no considera bisiestos).
const DaysInYear = 365.0

// AnnualizedReturn es el CAGR de un trade normalizado a un año.
type AnnualizedReturn struct {
	Symbol                     string  `json:"symbol"`
	AnnualizedReturn           float64 `json:"annualizedReturn"`
	AnnualizedReturnPercentage float64 `json:"annualizedReturnPercentage"`
}

// CalculateAnnualizedReturn aplica (sell/buy)^(1/years) - 1 con years = días/365.
//
// Falla con ErrInvalidHoldingPeriod si no hay al menos un día completo entre
// la compra y end, con ErrInvalidBuyPrice si buy es cero, y con
// ErrNonFiniteReturn si el resultado no es representable (no se puede serializar a JSON).
func CalculateAnnualizedReturn(trade PortfolioTrade, end time.Time, buy, sell float64) (AnnualizedReturn, error) {
	days := DaysBetween(trade.PurchaseDate, end)
	if days < 1 {
		return AnnualizedReturn{}, fmt.Errorf("%s: %d days held: %w", trade.Symbol, days, ErrInvalidHoldingPeriod)
	}
	if buy == 0 {
		return AnnualizedReturn{}, fmt.Errorf("%s: %w", trade.Symbol, ErrInvalidBuyPrice)
	}

	years := float64(days) / DaysInYear
	r := math.Pow(sell/buy, 1/years) - 1
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return AnnualizedReturn{}, fmt.Errorf("%s: buy %g sell %g over %d days: %w", trade.Symbol, buy, sell, days, ErrNonFiniteReturn)
	}

	return AnnualizedReturn{
		Symbol:                     trade.Symbol,
		AnnualizedReturn:           r,
		AnnualizedReturnPercentage: r * 100,
	}, nil
}

// ReturnFromCandles deriva buy (open del primer candle) y sell (close del último)
// y calcula el retorno anualizado. ok=false si candles está vacío: el trade
// se omite sin error.
func ReturnFromCandles(trade PortfolioTrade, end time.Time, candles []Candle) (AnnualizedReturn, bool, error) {
	buy, ok := OpeningPrice(candles)
	if !ok {
		return AnnualizedReturn{}, false, nil
	}
	sell, _ := ClosingPrice(candles)

	ar, err := CalculateAnnualizedReturn(trade, end, buy, sell)
	if err != nil {
		return AnnualizedReturn{}, false, err
	}
	return ar, true, nil
}

// SortByReturn ordena de mayor a menor retorno anualizado.
// Es estable: los empates conservan el orden de entrada.
func SortByReturn(returns []AnnualizedReturn) {
	sort.SliceStable(returns, func(i, j int) bool {
		return returns[i].AnnualizedReturn > returns[j].AnnualizedReturn
	})
}
