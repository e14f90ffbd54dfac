package copier

// resubmit.go — cadena de envíos de una copia. Las compras salen como FAK
// y persiguen el precio hasta un techo; el último intento queda como GTD
// descansando en el book. Las ventas son un único GTD desde el principio.

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

const (
	// resto mínimo de shares para que un parcial merezca otro intento
	minChainRemainder = 1.0

	// tolerancia para comparar precios redondeados a centavos
	priceEpsilon = 1e-9

	// por debajo de este tamaño de ballena, los reintentos FAK esperan
	smallWhaleShares = 1000.0
)

// runChain envía la copia y devuelve su estado terminal. Actualiza
// cp.Attempts y cp.FilledSize sobre la marcha y persiste cada intento.
func (e *Engine) runChain(ctx context.Context, cp *domain.CopyOrder, ev domain.WhaleTradeEvent, tier domain.TierParams, info ports.MarketInfo) string {
	if ev.Side == domain.SideSell {
		return e.runSell(ctx, cp, info)
	}
	return e.runBuyChain(ctx, cp, ev, tier, info)
}

// runSell coloca la venta como GTD a precio límite y no la persigue:
// vender por debajo del precio de la ballena nunca mejora la posición.
func (e *Engine) runSell(ctx context.Context, cp *domain.CopyOrder, info ports.MarketInfo) string {
	req := domain.OrderRequest{
		TokenID:    cp.TokenID,
		Side:       domain.SideSell,
		Price:      cp.LimitPrice,
		Size:       cp.CopySize,
		Type:       domain.OrderTypeGTD,
		Expiration: time.Now().Add(e.expiry(info)),
		NegRisk:    info.NegRisk,
	}

	res, err := e.submit(ctx, cp, 1, req)
	if err != nil {
		return domain.StatusFailed(err.Error())
	}

	cp.FilledSize = domain.Round2(res.FilledSize)
	if !res.Resting && cp.FilledSize >= cp.CopySize-priceEpsilon {
		return domain.StatusSuccess(cp.FilledSize, cp.CopySize)
	}
	return domain.StatusResting
}

// runBuyChain ejecuta la cadena de compra: intentos FAK con persecución de
// precio acotada, y el último intento como GTD que queda en el book.
func (e *Engine) runBuyChain(ctx context.Context, cp *domain.CopyOrder, ev domain.WhaleTradeEvent, tier domain.TierParams, info ports.MarketInfo) string {
	maxPrice := math.Min(cp.LimitPrice+tier.ResubmitMaxBuffer, domain.MaxLimitPrice)

	// el presupuesto del tier cuenta reenvíos: el envío inicial va aparte
	totalAttempts := tier.MaxResubmits + 1

	var (
		attempt   = 1
		price     = cp.LimitPrice
		size      = cp.CopySize
		requested = cp.CopySize
		filled    = 0.0
	)

	for attempt <= totalAttempts {
		isLast := attempt >= totalAttempts

		if attempt > 1 {
			increment := 0.0
			if tier.ChaseFirstRetry && attempt == 2 {
				increment = e.cfg.ChaseIncrement
			}
			price = domain.Round2(math.Min(price+increment, domain.MaxLimitPrice))
		}

		// el techo solo corta intentos intermedios: el GTD final siempre
		// sale, aunque sea al precio ya alcanzado
		if !isLast && price > maxPrice+priceEpsilon {
			slog.Info("price chase hit ceiling",
				"token", cp.TokenID,
				"price", price,
				"max_price", maxPrice,
				"filled", filled,
			)
			if filled > 0 {
				return domain.StatusPartial(filled, requested)
			}
			return domain.StatusFailed("max_price_exceeded")
		}

		req := domain.OrderRequest{
			TokenID: cp.TokenID,
			Side:    domain.SideBuy,
			Price:   price,
			Size:    size,
			Type:    domain.OrderTypeFAK,
			NegRisk: info.NegRisk,
		}
		if isLast {
			req.Type = domain.OrderTypeGTD
			req.Expiration = time.Now().Add(e.expiry(info))
		}

		res, err := e.submit(ctx, cp, attempt, req)
		if err != nil {
			if domain.IsRetryable(err) && !isLast {
				slog.Debug("order killed, retrying",
					"token", cp.TokenID,
					"attempt", attempt,
					"price", price,
					"err", err,
				)
				if ev.Shares < smallWhaleShares {
					e.pause(ctx, e.cfg.RetryDelay)
				}
				attempt++
				continue
			}
			if filled > 0 {
				return domain.StatusPartial(filled, requested)
			}
			return domain.StatusFailed(err.Error())
		}

		if isLast {
			filled = domain.Round2(filled + res.FilledSize)
			cp.FilledSize = filled
			if !res.Resting && filled >= requested-priceEpsilon {
				return domain.StatusSuccess(filled, requested)
			}
			return domain.StatusResting
		}

		filledThis := res.FilledSize
		filled = domain.Round2(filled + filledThis)
		cp.FilledSize = filled
		remaining := domain.Round2(size - filledThis)

		// un parcial solo continúa si quedó algo ejecutable; los restos de
		// polvo se dan por buenos
		if filledThis > 0 && remaining > minChainRemainder && remaining >= e.sizer.MinViable(price) {
			slog.Debug("partial fill, chasing remainder",
				"token", cp.TokenID,
				"attempt", attempt,
				"filled", filledThis,
				"remaining", remaining,
			)
			size = remaining
			attempt++
			continue
		}

		return domain.StatusSuccess(filled, requested)
	}

	// agotados los intentos sin resolución (solo alcanzable si el GTD
	// final falló de forma reintentable, que el executor no debería marcar)
	if filled > 0 {
		return domain.StatusPartial(filled, requested)
	}
	return domain.StatusFailed("attempts_exhausted")
}

// submit envía la orden, registra el intento en storage y actualiza el
// contador de intentos de la copia. El error de persistencia no corta la
// cadena: la orden ya está fuera.
func (e *Engine) submit(ctx context.Context, cp *domain.CopyOrder, number int, req domain.OrderRequest) (domain.OrderResult, error) {
	res, err := e.executor.SubmitOrder(ctx, req)

	attempt := domain.OrderAttempt{
		Number:      number,
		Price:       req.Price,
		Size:        req.Size,
		Type:        req.Type,
		FilledSize:  res.FilledSize,
		OrderID:     res.OrderID,
		SubmittedAt: time.Now(),
	}
	if err != nil {
		attempt.Err = err.Error()
	}
	cp.Attempts = number

	if serr := e.store.SaveAttempt(ctx, cp.ID, attempt); serr != nil {
		slog.Error("persist attempt failed", "copy_id", cp.ID, "attempt", number, "err", serr)
	}

	return res, err
}

func (e *Engine) expiry(info ports.MarketInfo) time.Duration {
	if info.Live {
		return e.cfg.LiveExpiry
	}
	return e.cfg.RestingExpiry
}

// pause duerme respetando la cancelación del contexto.
func (e *Engine) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
