package main

// replay.go — feed de replay: baja los últimos fills de la ballena desde la
// Data API y los inyecta en el pipeline como si llegaran en vivo. Útil para
// validar sizing, guard y storage contra actividad real sin esperar al
// siguiente trade.

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/whalebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/whalebot/internal/domain"
)

type replayFeed struct {
	client *polymarket.Client
	whale  string
	limit  int
}

func newReplayFeed(client *polymarket.Client, whale string, limit int) *replayFeed {
	return &replayFeed{client: client, whale: whale, limit: limit}
}

// Subscribe emite los fills del más antiguo al más reciente y cierra el
// canal, con lo que el engine drena y termina solo.
func (f *replayFeed) Subscribe(ctx context.Context) (<-chan domain.WhaleTradeEvent, error) {
	trades, err := f.client.FetchUserTrades(ctx, f.whale, f.limit)
	if err != nil {
		return nil, err
	}

	slog.Info("replaying whale fills", "whale", f.whale, "count", len(trades))

	out := make(chan domain.WhaleTradeEvent, len(trades))
	go func() {
		defer close(out)
		for i := len(trades) - 1; i >= 0; i-- {
			select {
			case out <- trades[i]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
