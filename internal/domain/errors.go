package domain

import "errors"

// Taxonomía de errores. Los adapters envuelven estos sentinels con %w para
// que el caller pueda clasificar con errors.Is.
var (
	// ErrArgument: uso incorrecto del CLI (número de argumentos, fecha inválida).
	ErrArgument = errors.New("invalid argument")

	// ErrParse: JSON de trades o de candles malformado.
	ErrParse = errors.New("parse error")

	// ErrNotFound: archivo de trades inexistente o ticker desconocido en el provider.
	ErrNotFound = errors.New("not found")

	// ErrNetwork: fallo de transporte o respuesta HTTP no exitosa.
	ErrNetwork = errors.New("network error")

	// ErrInvalidHoldingPeriod: menos de un día completo entre compra y fecha final.
	ErrInvalidHoldingPeriod = errors.New("the investment should be held for at least one day")

	// ErrInvalidBuyPrice: precio de compra cero.
	ErrInvalidBuyPrice = errors.New("buy price cannot be zero")

	// ErrInvalidDateRange: la fecha final es anterior a la fecha de compra.
	ErrInvalidDateRange = errors.New("end date precedes purchase date")

	// ErrNonFiniteReturn: la fórmula desborda (Inf/NaN), p.ej. tenencias muy
	// cortas con mucha subida. Afecta solo a ese trade.
	ErrNonFiniteReturn = errors.New("annualized return is not a finite number")
)

// IsFatal indica si el error debe abortar el run completo en lugar de
// registrarse como fallo de un solo trade.
func IsFatal(err error) bool {
	return errors.Is(err, ErrArgument) ||
		errors.Is(err, ErrInvalidHoldingPeriod) ||
		errors.Is(err, ErrInvalidBuyPrice) ||
		errors.Is(err, ErrInvalidDateRange)
}
