package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/alejandrodnm/qmoney/internal/ports"
)

// Config contiene la configuración del manager.
type Config struct {
	Workers int    // fetches en paralelo (<= 1 = secuencial)
	RunID   string // vacío = se genera uno por run
}

// Manager orquesta trades → precios → retornos anualizados.
type Manager struct {
	cfg    Config
	prices ports.PriceProvider
	now    func() time.Time
}

// New crea un Manager con el PriceProvider inyectado.
func New(cfg Config, prices ports.PriceProvider) *Manager {
	return &Manager{
		cfg:    cfg,
		prices: prices,
		now:    time.Now,
	}
}

// CalculateAnnualizedReturns calcula el retorno anualizado de cada trade hasta end.
//
// Los trades sin candles quedan como no_data y los que fallan al obtener precios
// como failed; ninguno de los dos aborta el batch. Un rango de fechas inválido,
// un precio de compra cero o la cancelación del contexto abortan el run.
func (m *Manager) CalculateAnnualizedReturns(ctx context.Context, trades []domain.PortfolioTrade, end time.Time) (domain.Report, error) {
	end = domain.Civil(end)
	if err := validateTrades(trades, end); err != nil {
		return domain.Report{}, fmt.Errorf("portfolio.CalculateAnnualizedReturns: %w", err)
	}

	report := domain.Report{
		RunID:     m.runID(),
		EndDate:   end,
		CreatedAt: m.now().UTC(),
		Outcomes:  make([]domain.TradeOutcome, 0, len(trades)),
	}

	fetched, err := m.fetchAll(ctx, trades, end)
	if err != nil {
		return domain.Report{}, fmt.Errorf("portfolio.CalculateAnnualizedReturns: %w", err)
	}

	for _, f := range fetched {
		outcome, err := toOutcome(f, end)
		if err != nil {
			return domain.Report{}, fmt.Errorf("portfolio.CalculateAnnualizedReturns: %w", err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	slog.Info("annualized returns computed",
		"trades", len(trades),
		"computed", report.Count(domain.OutcomeComputed),
		"no_data", report.Count(domain.OutcomeNoData),
		"failed", report.Count(domain.OutcomeFailed),
	)
	return report, nil
}

// SymbolsByClosingPrice devuelve los símbolos ordenados de menor a mayor
// según el close del último día con datos antes de end.
// Los trades sin datos o con error de fetch se omiten.
func (m *Manager) SymbolsByClosingPrice(ctx context.Context, trades []domain.PortfolioTrade, end time.Time) ([]string, error) {
	end = domain.Civil(end)
	if err := validateTrades(trades, end); err != nil {
		return nil, fmt.Errorf("portfolio.SymbolsByClosingPrice: %w", err)
	}

	fetched, err := m.fetchAll(ctx, trades, end)
	if err != nil {
		return nil, fmt.Errorf("portfolio.SymbolsByClosingPrice: %w", err)
	}

	type closing struct {
		symbol string
		price  float64
	}
	closings := make([]closing, 0, len(fetched))
	for _, f := range fetched {
		if f.err != nil {
			continue
		}
		price, ok := domain.ClosingPrice(f.candles)
		if !ok {
			continue
		}
		closings = append(closings, closing{symbol: f.trade.Symbol, price: price})
	}

	sort.SliceStable(closings, func(i, j int) bool {
		return closings[i].price < closings[j].price
	})

	symbols := make([]string, len(closings))
	for i, c := range closings {
		symbols[i] = c.symbol
	}
	return symbols, nil
}

// fetched es el resultado crudo del fetch de un trade.
type fetched struct {
	index   int
	trade   domain.PortfolioTrade
	candles []domain.Candle
	err     error
}

// fetchAll obtiene los candles de todos los trades, en orden de input.
// Solo devuelve error si el contexto se cancela.
func (m *Manager) fetchAll(ctx context.Context, trades []domain.PortfolioTrade, end time.Time) ([]fetched, error) {
	var results []fetched
	if m.cfg.Workers > 1 && len(trades) > 1 {
		results = fetchConcurrent(ctx, m.prices, trades, end, m.cfg.Workers)
	} else {
		results = make([]fetched, 0, len(trades))
		for i, t := range trades {
			if ctx.Err() != nil {
				break
			}
			results = append(results, fetchOne(ctx, m.prices, i, t, end))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchOne obtiene los candles de un trade y loguea el fallo si lo hay.
func fetchOne(ctx context.Context, prices ports.PriceProvider, index int, trade domain.PortfolioTrade, end time.Time) fetched {
	candles, err := prices.FetchCandles(ctx, trade.Symbol, trade.PurchaseDate, end)
	if err != nil && ctx.Err() == nil {
		slog.Warn("price fetch failed, skipping trade",
			"symbol", trade.Symbol,
			"purchase_date", trade.PurchaseDate.Format(domain.DateLayout),
			"err", err,
		)
	}
	return fetched{index: index, trade: trade, candles: candles, err: err}
}

// toOutcome aplica la fórmula al resultado del fetch.
// Devuelve error solo para violaciones de dominio fatales, que abortan el run;
// un retorno no finito queda como failed.
func toOutcome(f fetched, end time.Time) (domain.TradeOutcome, error) {
	outcome := domain.TradeOutcome{Index: f.index, Trade: f.trade}

	if f.err != nil {
		if domain.IsFatal(f.err) {
			return outcome, f.err
		}
		outcome.Status = domain.OutcomeFailed
		outcome.Err = f.err
		return outcome, nil
	}

	ar, ok, err := domain.ReturnFromCandles(f.trade, end, f.candles)
	if err != nil {
		if domain.IsFatal(err) {
			return outcome, err
		}
		slog.Warn("annualized return not computable, skipping trade",
			"symbol", f.trade.Symbol,
			"err", err,
		)
		outcome.Status = domain.OutcomeFailed
		outcome.Err = err
		return outcome, nil
	}
	if !ok {
		slog.Warn("no price data for trade, omitted from returns",
			"symbol", f.trade.Symbol,
			"purchase_date", f.trade.PurchaseDate.Format(domain.DateLayout),
			"end_date", end.Format(domain.DateLayout),
		)
		outcome.Status = domain.OutcomeNoData
		return outcome, nil
	}

	outcome.Status = domain.OutcomeComputed
	outcome.Return = ar
	return outcome, nil
}

// validateTrades rechaza cualquier trade sin al menos un día de tenencia antes
// de hacer ningún request.
func validateTrades(trades []domain.PortfolioTrade, end time.Time) error {
	var errs []error
	for i, t := range trades {
		if err := domain.ValidateHoldingPeriod(t.PurchaseDate, end); err != nil {
			errs = append(errs, fmt.Errorf("trade %d (%s, purchased %s, end %s): %w",
				i, t.Symbol,
				t.PurchaseDate.Format(domain.DateLayout),
				end.Format(domain.DateLayout),
				err,
			))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) runID() string {
	if m.cfg.RunID != "" {
		return m.cfg.RunID
	}
	return uuid.NewString()
}
