package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/qmoney/internal/domain"
)

// PriceProvider obtiene la serie diaria de precios de un símbolo.
type PriceProvider interface {
	// FetchCandles devuelve los candles entre from y to (inclusive), en orden
	// cronológico ascendente. Slice vacío si el rango no tiene días hábiles.
	FetchCandles(ctx context.Context, symbol string, from, to time.Time) ([]domain.Candle, error)
}
