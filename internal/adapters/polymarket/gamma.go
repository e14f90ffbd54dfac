package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/alejandrodnm/whalebot/internal/ports"
)

const (
	gammaMarketsPath   = "/markets"
	gammaEventSlugPath = "/events/slug/"
)

// FetchMarketInfo obtiene los metadatos de un token vía Gamma. El campo live
// embebido en /markets puede venir desfasado, así que cuando el mercado tiene
// evento padre se reconsulta /events/slug/{slug} para el estado fresco.
func (c *Client) FetchMarketInfo(ctx context.Context, tokenID string) (ports.MarketInfo, error) {
	u := fmt.Sprintf("%s%s?clob_token_ids=%s", c.gammaBase, gammaMarketsPath, url.QueryEscape(tokenID))

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaLimiter, u, &resp); err != nil {
		return ports.MarketInfo{}, fmt.Errorf("gamma.FetchMarketInfo: %w", err)
	}
	if len(resp) == 0 {
		return ports.MarketInfo{}, fmt.Errorf("gamma.FetchMarketInfo: no market for token %s", tokenID)
	}

	info := mapMarketInfo(resp[0])

	if len(resp[0].Events) > 0 {
		live, err := c.fetchEventLive(ctx, resp[0].Events[0].Slug)
		if err != nil {
			slog.Debug("event live refresh failed, using embedded value", "slug", resp[0].Events[0].Slug, "err", err)
		} else {
			info.Live = live
		}
	}

	return info, nil
}

// fetchEventLive consulta el estado live de un evento por slug.
func (c *Client) fetchEventLive(ctx context.Context, slug string) (bool, error) {
	if slug == "" {
		return false, fmt.Errorf("empty event slug")
	}

	var ev gammaEvent
	u := c.gammaBase + gammaEventSlugPath + url.PathEscape(slug)
	if err := c.get(ctx, c.gammaLimiter, u, &ev); err != nil {
		return false, err
	}
	return ev.Live, nil
}
