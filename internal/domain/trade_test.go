package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 7, DaysBetween(date("2019-01-02"), date("2019-01-09")))
	assert.Equal(t, 365, DaysBetween(date("2019-01-01"), date("2020-01-01")))
	assert.Equal(t, 366, DaysBetween(date("2020-01-01"), date("2021-01-01")))
	assert.Equal(t, -3, DaysBetween(date("2019-01-05"), date("2019-01-02")))
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2019, 1, 2, 23, 59, 0, 0, time.UTC)
	to := time.Date(2019, 1, 3, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(from, to))
}

func TestValidateHoldingPeriod(t *testing.T) {
	assert.NoError(t, ValidateHoldingPeriod(date("2019-01-02"), date("2019-01-03")))
	assert.ErrorIs(t, ValidateHoldingPeriod(date("2019-01-02"), date("2019-01-02")), ErrInvalidHoldingPeriod)
	assert.ErrorIs(t, ValidateHoldingPeriod(date("2019-01-03"), date("2019-01-02")), ErrInvalidDateRange)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("wrap: %w", ErrInvalidBuyPrice)))
	assert.True(t, IsFatal(ErrInvalidDateRange))
	assert.False(t, IsFatal(fmt.Errorf("fetch: %w", ErrNetwork)))
	assert.False(t, IsFatal(ErrParse))
	assert.False(t, IsFatal(errors.New("other")))
}

func TestReport_ReturnsAndOmitted(t *testing.T) {
	r := Report{Outcomes: []TradeOutcome{
		{Index: 0, Trade: trade("A", "2019-01-01"), Status: OutcomeComputed, Return: AnnualizedReturn{Symbol: "A", AnnualizedReturn: 0.1}},
		{Index: 1, Trade: trade("B", "2019-01-01"), Status: OutcomeNoData},
		{Index: 2, Trade: trade("C", "2019-01-01"), Status: OutcomeComputed, Return: AnnualizedReturn{Symbol: "C", AnnualizedReturn: 0.3}},
		{Index: 3, Trade: trade("D", "2019-01-01"), Status: OutcomeFailed, Err: ErrNetwork},
	}}

	returns := r.Returns()
	if assert.Len(t, returns, 2) {
		assert.Equal(t, "C", returns[0].Symbol)
		assert.Equal(t, "A", returns[1].Symbol)
	}

	omitted := r.Omitted()
	if assert.Len(t, omitted, 2) {
		assert.Equal(t, "B", omitted[0].Trade.Symbol)
		assert.Equal(t, "D", omitted[1].Trade.Symbol)
	}
	assert.Equal(t, 1, r.Count(OutcomeFailed))
	assert.Equal(t, 2, r.Count(OutcomeComputed))
}
