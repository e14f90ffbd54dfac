package polymarket

// dataapi.go — Data API pública de Polymarket.
//
// Dos usos: el historial de fills de la ballena (modo replay, sin conexión
// on-chain) y el valor de cartera de ambas direcciones para el resumen de
// divergencia al cierre de sesión.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

const (
	tradesPerPage  = 500
	tradesMaxPages = 4
)

// FetchUserTrades obtiene los fills recientes de un usuario, más reciente
// primero. Pagina hasta maxTrades o hasta agotar resultados.
func (c *Client) FetchUserTrades(ctx context.Context, user string, maxTrades int) ([]domain.WhaleTradeEvent, error) {
	if maxTrades <= 0 || maxTrades > tradesPerPage*tradesMaxPages {
		maxTrades = tradesPerPage * tradesMaxPages
	}

	var all []domain.WhaleTradeEvent

	for page := 0; page < tradesMaxPages && len(all) < maxTrades; page++ {
		offset := page * tradesPerPage
		url := fmt.Sprintf("%s/trades?user=%s&limit=%d&offset=%d",
			c.dataBase, user, tradesPerPage, offset)

		var resp []dataTrade
		if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("data-api.FetchUserTrades: %w", err)
		}

		if len(resp) == 0 {
			break
		}

		for _, rt := range resp {
			ev, err := mapDataTrade(rt)
			if err != nil {
				slog.Debug("skipping malformed trade", "tx", rt.TransactionHash, "err", err)
				continue
			}
			all = append(all, ev)
		}

		if len(resp) < tradesPerPage {
			break
		}
	}

	if len(all) > maxTrades {
		all = all[:maxTrades]
	}
	return all, nil
}

// FetchUserValue devuelve el valor de cartera actual de una dirección.
func (c *Client) FetchUserValue(ctx context.Context, user string) (float64, error) {
	url := fmt.Sprintf("%s/value?user=%s", c.dataBase, user)

	// El endpoint devuelve un array de un elemento.
	var resp []dataValue
	if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
		return 0, fmt.Errorf("data-api.FetchUserValue: %w", err)
	}
	if len(resp) == 0 {
		return 0, fmt.Errorf("data-api.FetchUserValue: empty response for %s", user)
	}

	v, err := resp[0].Value.Float64()
	if err != nil {
		return 0, fmt.Errorf("data-api.FetchUserValue: parse value: %w", err)
	}
	return v, nil
}

// mapDataTrade convierte un fill de la Data API al evento del dominio.
func mapDataTrade(rt dataTrade) (domain.WhaleTradeEvent, error) {
	price, _ := rt.Price.Float64()
	size, _ := rt.Size.Float64()

	ev := domain.WhaleTradeEvent{
		TokenID:    rt.Asset,
		Side:       domain.Side(strings.ToUpper(rt.Side)),
		Shares:     size,
		Price:      price,
		USDValue:   price * size,
		TxHash:     rt.TransactionHash,
		ObservedAt: parseTradeTimestamp(rt.Timestamp),
	}
	if err := ev.Validate(); err != nil {
		return domain.WhaleTradeEvent{}, err
	}
	return ev, nil
}

func parseTradeTimestamp(n json.Number) time.Time {
	s := n.String()
	// Unix en segundos o milisegundos
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return time.Unix(sec/1000, (sec%1000)*int64(time.Millisecond))
		}
		return time.Unix(sec, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec)
	}
	for _, layout := range []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
