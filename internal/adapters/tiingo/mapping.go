package tiingo

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/qmoney/internal/domain"
)

// toCandles convierte la respuesta raw en candles, conservando el orden de la API.
func toCandles(raw []dailyPrice) ([]domain.Candle, error) {
	candles := make([]domain.Candle, 0, len(raw))
	for i, p := range raw {
		d, err := parseCandleDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: candle %d: date %q", domain.ErrParse, i, p.Date)
		}
		candles = append(candles, domain.Candle{
			Date:   d,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return candles, nil
}

func parseCandleDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, domain.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Civil(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
