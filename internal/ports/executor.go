package ports

import (
	"context"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// OrderExecutor signs and submits real orders on Polymarket CLOB.
type OrderExecutor interface {
	// SubmitOrder signs and submits a single limit order. FilledSize in the
	// result reflects what this submission executed; a GTD order accepted
	// without crossing comes back with Resting=true. Submission errors are
	// wrapped so the caller can classify them with domain.IsRetryable.
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)

	// GetBalance returns the available USDC.e balance in the CLOB wallet.
	GetBalance(ctx context.Context) (float64, error)
}
