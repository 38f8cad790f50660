package domain

import "time"

// DateLayout es el formato ISO-8601 de fecha civil usado en el input y en la API.
const DateLayout = "2006-01-02"

// PortfolioTrade es una posición del portfolio: símbolo + fecha de compra.
type PortfolioTrade struct {
	Symbol       string
	PurchaseDate time.Time // fecha civil, medianoche UTC
	Quantity     float64   // opcional, no interviene en el cálculo
	TradeType    string    // opcional: "BUY" | "SELL"
}

// Civil normaliza t a medianoche UTC del mismo día de calendario.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parsea una fecha yyyy-MM-dd como fecha civil.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Civil(t), nil
}

// DaysBetween devuelve los días completos de calendario entre from y to.
// Negativo si to es anterior a from.
func DaysBetween(from, to time.Time) int {
	return int(Civil(to).Sub(Civil(from)).Hours() / 24)
}

// ValidateHoldingPeriod comprueba que entre la compra y end haya al menos un día.
func ValidateHoldingPeriod(purchase, end time.Time) error {
	days := DaysBetween(purchase, end)
	switch {
	case days < 0:
		return ErrInvalidDateRange
	case days == 0:
		return ErrInvalidHoldingPeriod
	}
	return nil
}
