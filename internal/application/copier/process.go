package copier

// process.go — pipeline de un fill de la ballena, del evento al estado
// terminal. Cada etapa puede cortocircuitar con un estado SKIPPED_* o
// RISK_BLOCKED; solo los eventos que sobreviven todas llegan al envío.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

func (e *Engine) process(ctx context.Context, ev domain.WhaleTradeEvent) {
	cp := newCopy(ev)

	if !e.cfg.Enabled {
		e.closeCopy(ctx, cp, domain.StatusSkippedDisabled)
		return
	}

	tier := domain.ResolveTier(ev.Shares)

	// metadata: un fallo no bloquea, el MarketInfo cero ya es conservador
	info, err := e.metadata.Lookup(ctx, ev.TokenID)
	if err != nil {
		slog.Debug("metadata lookup failed, proceeding without", "token", ev.TokenID, "err", err)
		info = ports.MarketInfo{}
	}
	cp.Slug = info.Slug

	if eval := e.checkSafety(ctx, ev); eval.Decision == domain.SafetyBlock {
		slog.Warn("copy blocked by risk guard",
			"tx", ev.TxHash,
			"reason", eval.Reason,
			"detail", eval.Detail,
		)
		e.closeCopy(ctx, cp, domain.StatusRiskBlocked(string(eval.Reason)))
		return
	}

	sizing := e.sizer.Size(ev.Shares, ev.Price, tier.SizeMultiplier)
	switch sizing.Outcome {
	case domain.SizingBelowFloor:
		e.closeCopy(ctx, cp, domain.StatusSkippedSmall)
		return
	case domain.SizingProbSkip:
		slog.Debug("probabilistic skip",
			"tx", ev.TxHash,
			"probability", sizing.Probability,
		)
		e.closeCopy(ctx, cp, domain.StatusSkippedProbability)
		return
	}

	limit := domain.LimitPrice(ev.Price, ev.Side,
		tier.BaseBuffer, domain.CategoryBuffer(info.Tennis, info.Soccer))

	cp.CopySize = domain.Round2(sizing.Size)
	cp.LimitPrice = limit

	slog.Info("copying whale fill",
		"side", ev.Side,
		"token", ev.TokenID,
		"whale_shares", ev.Shares,
		"whale_price", ev.Price,
		"copy_size", cp.CopySize,
		"limit", limit,
		"tier_min", tier.MinShares,
		"live", info.Live,
	)

	status := e.runChain(ctx, &cp, ev, tier, info)
	e.closeCopy(ctx, cp, status)

	e.scheduleSnapshot(ev)
}

// checkSafety ejecuta las dos etapas del guard. El fetch del book solo
// ocurre cuando el guard lo exige; si falla, la decisión es Block sin
// trippear el token (fail closed, el siguiente trade reevalúa).
func (e *Engine) checkSafety(ctx context.Context, ev domain.WhaleTradeEvent) domain.SafetyEvaluation {
	now := time.Now()
	eval := e.guard.CheckFast(ev.TokenID, ev.Shares, now)
	if eval.Decision != domain.SafetyFetchBook {
		return eval
	}

	book, err := e.books.FetchOrderBook(ctx, ev.TokenID)
	if err != nil {
		return domain.BookFetchFailure(eval.Count, err)
	}

	depth := book.DepthBeyond(ev.Side, ev.Price)
	return e.guard.CheckWithBook(ev.TokenID, eval.Count, depth, time.Now())
}

// scheduleSnapshot registra el estado del book unos segundos después del
// fill, cuando el mercado ya absorbió el trade de la ballena. Solo para el
// log de auditoría; no afecta a ninguna decisión.
func (e *Engine) scheduleSnapshot(ev domain.WhaleTradeEvent) {
	if e.cfg.SnapshotDelay <= 0 {
		return
	}

	e.snapWG.Add(1)
	go func() {
		defer e.snapWG.Done()

		// contexto propio: el snapshot debe sobrevivir al shutdown de Run
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.SnapshotDelay+10*time.Second)
		defer cancel()

		select {
		case <-time.After(e.cfg.SnapshotDelay):
		case <-ctx.Done():
			return
		}

		book, err := e.books.FetchOrderBook(ctx, ev.TokenID)
		if err != nil {
			slog.Debug("post-trade snapshot failed", "token", ev.TokenID, "err", err)
			return
		}

		best, second := book.TopLevels(ev.Side)
		slog.Info("post-trade book",
			"token", ev.TokenID,
			"side", ev.Side,
			"whale_price", ev.Price,
			"best_price", best.Price,
			"best_size", best.Size,
			"second_price", second.Price,
			"second_size", second.Size,
			"spread", book.Spread(),
		)
	}()
}
