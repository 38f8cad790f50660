package ports

import (
	"context"

	"github.com/alejandrodnm/qmoney/internal/domain"
)

// Storage persiste el historial de runs.
type Storage interface {
	// SaveReport persiste el reporte completo de un run, incluidos los omitidos.
	SaveReport(ctx context.Context, report domain.Report) error

	// LatestReport devuelve el último run guardado. ok=false si no hay ninguno.
	LatestReport(ctx context.Context) (domain.Report, bool, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
