package ports

import (
	"context"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// CopyStorage persiste las copias y sus intentos para auditoría e idempotencia.
type CopyStorage interface {
	// SeenKeys devuelve las claves de dedup de las copias recientes, para
	// precalentar el set de idempotencia al arrancar.
	SeenKeys(ctx context.Context) ([]string, error)

	// SaveCopy inserta o actualiza el registro agregado de una copia.
	SaveCopy(ctx context.Context, copy domain.CopyOrder) error

	// SaveAttempt registra un envío individual dentro de la cadena de una copia.
	SaveAttempt(ctx context.Context, copyID string, attempt domain.OrderAttempt) error

	// RecentCopies devuelve las últimas copias cerradas, más reciente primero.
	RecentCopies(ctx context.Context, limit int) ([]domain.CopyOrder, error)

	// Stats agrega los contadores de la sesión para el resumen de consola.
	Stats(ctx context.Context) (domain.CopyStats, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
