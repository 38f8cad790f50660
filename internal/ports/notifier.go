package ports

import (
	"context"

	"github.com/alejandrodnm/qmoney/internal/domain"
)

// Notifier presenta el reporte de retornos al usuario.
type Notifier interface {
	// Notify imprime los retornos ordenados y lista los trades omitidos.
	Notify(ctx context.Context, report domain.Report) error
}
