package tradefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alejandrodnm/qmoney/internal/domain"
)

// rawTrade es un item del archivo de trades. Los campos extra se ignoran.
type rawTrade struct {
	Symbol       *string  `json:"symbol"`
	PurchaseDate *string  `json:"purchaseDate"`
	Quantity     *float64 `json:"quantity"`
	TradeType    string   `json:"tradeType"`
}

// LoadFile lee y parsea el archivo de trades en path.
// Devuelve domain.ErrNotFound si el archivo no existe.
func LoadFile(path string) ([]domain.PortfolioTrade, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("tradefile.LoadFile: %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("tradefile.LoadFile: read %q: %w", path, err)
	}

	trades, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tradefile.LoadFile: %q: %w", path, err)
	}
	return trades, nil
}

// Parse convierte un array JSON de trades en []domain.PortfolioTrade,
// conservando el orden del input.
func Parse(data []byte) ([]domain.PortfolioTrade, error) {
	var raw []rawTrade
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected JSON array", domain.ErrParse)
	}

	trades := make([]domain.PortfolioTrade, 0, len(raw))
	for i, rt := range raw {
		t, err := toTrade(rt)
		if err != nil {
			return nil, fmt.Errorf("%w: trade %d: %w", domain.ErrParse, i, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// Symbols devuelve los símbolos en el orden del input.
func Symbols(trades []domain.PortfolioTrade) []string {
	out := make([]string, len(trades))
	for i, t := range trades {
		out[i] = t.Symbol
	}
	return out
}

func toTrade(rt rawTrade) (domain.PortfolioTrade, error) {
	if rt.Symbol == nil || *rt.Symbol == "" {
		return domain.PortfolioTrade{}, errors.New("missing symbol")
	}
	if rt.PurchaseDate == nil {
		return domain.PortfolioTrade{}, fmt.Errorf("%s: missing purchaseDate", *rt.Symbol)
	}
	d, err := domain.ParseDate(*rt.PurchaseDate)
	if err != nil {
		return domain.PortfolioTrade{}, fmt.Errorf("%s: purchaseDate %q: want yyyy-MM-dd", *rt.Symbol, *rt.PurchaseDate)
	}

	t := domain.PortfolioTrade{
		Symbol:       *rt.Symbol,
		PurchaseDate: d,
		TradeType:    rt.TradeType,
	}
	if rt.Quantity != nil {
		t.Quantity = *rt.Quantity
	}
	return t, nil
}
