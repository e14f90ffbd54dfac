package ports

import (
	"context"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// WhaleFeed emite los fills de la ballena en tiempo real.
type WhaleFeed interface {
	// Subscribe arranca la ingesta y devuelve el canal de eventos. El canal
	// se cierra cuando el contexto se cancela o la conexión muere sin
	// posibilidad de reconectar. Los eventos ya vienen validados.
	Subscribe(ctx context.Context) (<-chan domain.WhaleTradeEvent, error)
}
