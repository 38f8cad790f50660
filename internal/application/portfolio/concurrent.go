package portfolio

// concurrent.go: worker pool para fetch paralelo de precios.
//
// Los fetches son independientes entre trades; el orden final se reconstruye
// por índice, así que el resultado es idéntico al secuencial.

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/alejandrodnm/qmoney/internal/ports"
)

// fetchConcurrent obtiene los candles de todos los trades usando un worker pool.
// El rate limiter del PriceProvider sigue aplicando entre workers.
func fetchConcurrent(
	ctx context.Context,
	prices ports.PriceProvider,
	trades []domain.PortfolioTrade,
	end time.Time,
	workers int,
) []fetched {
	if workers > len(trades) {
		workers = len(trades)
	}

	type work struct {
		index int
		trade domain.PortfolioTrade
	}

	workCh := make(chan work, len(trades))
	resultCh := make(chan fetched, len(trades))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if ctx.Err() != nil {
					continue
				}
				resultCh <- fetchOne(ctx, prices, w.index, w.trade, end)
			}
		}()
	}

	for i, t := range trades {
		workCh <- work{index: i, trade: t}
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]fetched, 0, len(trades))
	for f := range resultCh {
		results = append(results, f)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})

	slog.Debug("concurrent fetch complete",
		"trades", len(trades),
		"fetched", len(results),
		"workers", workers,
	)
	return results
}
