package ports

import (
	"context"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// Notifier presenta la actividad del bot al usuario.
type Notifier interface {
	// NotifyCopy muestra una copia recién cerrada con su estado terminal.
	NotifyCopy(ctx context.Context, copy domain.CopyOrder) error

	// Summary imprime el resumen de la sesión: contadores y últimas copias.
	Summary(ctx context.Context, stats domain.CopyStats, recent []domain.CopyOrder) error
}
