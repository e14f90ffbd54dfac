package ports

import (
	"context"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// BookProvider obtiene orderbooks del CLOB.
type BookProvider interface {
	// FetchOrderBook devuelve el orderbook actual del token dado.
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}
