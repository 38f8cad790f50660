package tiingo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/qmoney/internal/domain"
)

const dailyPricesPath = "/tiingo/daily/%s/prices"

// FetchCandles obtiene los precios diarios de symbol entre from y to.
// Rechaza to <= from con domain.ErrInvalidDateRange sin hacer ningún request.
func (c *Client) FetchCandles(ctx context.Context, symbol string, from, to time.Time) ([]domain.Candle, error) {
	u, err := c.pricesURL(symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("tiingo.FetchCandles: %w", err)
	}

	var resp []dailyPrice
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("tiingo.FetchCandles %s: %w", symbol, err)
	}

	candles, err := toCandles(resp)
	if err != nil {
		return nil, fmt.Errorf("tiingo.FetchCandles %s: %w", symbol, err)
	}

	slog.Debug("fetched candles",
		"symbol", symbol,
		"from", from.Format(domain.DateLayout),
		"to", to.Format(domain.DateLayout),
		"count", len(candles),
	)
	return candles, nil
}

// pricesURL construye la URL del endpoint de precios diarios.
func (c *Client) pricesURL(symbol string, from, to time.Time) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("%w: empty symbol", domain.ErrArgument)
	}
	if domain.DaysBetween(from, to) <= 0 {
		return "", fmt.Errorf("%w: %s to %s",
			domain.ErrInvalidDateRange,
			from.Format(domain.DateLayout),
			to.Format(domain.DateLayout),
		)
	}

	q := url.Values{}
	q.Set("startDate", from.Format(domain.DateLayout))
	q.Set("endDate", to.Format(domain.DateLayout))
	q.Set("token", c.token)

	return c.baseURL + fmt.Sprintf(dailyPricesPath, url.PathEscape(symbol)) + "?" + q.Encode(), nil
}
