package domain

import "time"

// OutcomeStatus clasifica el resultado de procesar un trade.
type OutcomeStatus string

const (
	OutcomeComputed OutcomeStatus = "computed"
	OutcomeNoData   OutcomeStatus = "no_data"
	OutcomeFailed   OutcomeStatus = "failed"
)

// TradeOutcome es el resultado por trade: retorno calculado, sin datos, o fallo.
type TradeOutcome struct {
	Index  int              // posición del trade en el input
	Trade  PortfolioTrade
	Status OutcomeStatus
	Return AnnualizedReturn // solo válido si Status == OutcomeComputed
	Err    error            // solo si Status == OutcomeFailed
}

// Report agrupa los outcomes de un run completo.
type Report struct {
	RunID     string
	EndDate   time.Time
	CreatedAt time.Time
	Outcomes  []TradeOutcome // en orden de input
}

// Returns devuelve los retornos calculados ordenados de mayor a menor.
func (r Report) Returns() []AnnualizedReturn {
	out := make([]AnnualizedReturn, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Status == OutcomeComputed {
			out = append(out, o.Return)
		}
	}
	SortByReturn(out)
	return out
}

// Omitted devuelve los trades que no aparecen en Returns (sin datos o fallidos).
func (r Report) Omitted() []TradeOutcome {
	var out []TradeOutcome
	for _, o := range r.Outcomes {
		if o.Status != OutcomeComputed {
			out = append(out, o)
		}
	}
	return out
}

// Count devuelve cuántos outcomes tienen el status dado.
func (r Report) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
