package polymarket

// clob.go — Polymarket CLOB API adapter.
//
// FetchOrderBook implementa ports.BookProvider sobre GET /book. El guard lo
// usa para medir profundidad antes de permitir una copia y el pipeline lo
// reutiliza para el snapshot post-trade, así que comparte el rate limiter
// de books con un bucket pequeño: ráfagas cortas, ritmo sostenido bajo.

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

const bookPath = "/book"

// FetchOrderBook obtiene el orderbook actual de un token.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	if tokenID == "" {
		return domain.OrderBook{}, fmt.Errorf("clob.FetchOrderBook: empty token id")
	}

	url := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, bookPath, tokenID)

	var resp orderBookResponse
	if err := c.get(ctx, c.booksLimiter, url, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.FetchOrderBook: %w", err)
	}

	book := mapOrderBook(resp)
	if book.TokenID == "" {
		book.TokenID = tokenID
	}
	return book, nil
}
