package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusBuilders(t *testing.T) {
	assert.Equal(t, "SUCCESS:60.00/60.00", StatusSuccess(60, 60))
	assert.Equal(t, "PARTIAL:25.50/60.00", StatusPartial(25.5, 60))
	assert.Equal(t, "RISK_BLOCKED:trap", StatusRiskBlocked("trap"))
	assert.Equal(t, "FAILED:not enough balance", StatusFailed("not enough balance"))
}

func TestStatusFailed_SanitizesReason(t *testing.T) {
	status := StatusFailed("line one\nline two")
	assert.NotContains(t, status, "\n")

	long := StatusFailed(strings.Repeat("x", 500))
	assert.LessOrEqual(t, len(long), len("FAILED:")+120)
}

func TestStatusClassifiers(t *testing.T) {
	assert.True(t, IsSuccess(StatusSuccess(10, 10)))
	assert.False(t, IsSuccess(StatusPartial(5, 10)))

	assert.True(t, IsPartial(StatusPartial(5, 10)))

	assert.True(t, IsSkipped(StatusSkippedSmall))
	assert.True(t, IsSkipped(StatusSkippedDisabled))
	assert.True(t, IsSkipped(StatusSkippedProbability))
	assert.True(t, IsSkipped(StatusRiskBlocked("tripped")))
	assert.True(t, IsSkipped(StatusQueueErr))
	assert.False(t, IsSkipped(StatusResting))
	assert.False(t, IsSkipped(StatusFailed("boom")))
}

// --- Errores reintentables ---

func TestRetryable_WrapsAndDetects(t *testing.T) {
	base := errors.New("order killed: FAK")
	err := Retryable(base)

	assert.True(t, IsRetryable(err))
	assert.Equal(t, base.Error(), err.Error())
	assert.ErrorIs(t, err, base)
}

func TestRetryable_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("submit order: %w", Retryable(errors.New("killed")))
	assert.True(t, IsRetryable(err))
}

func TestRetryable_NilAndPlainErrors(t *testing.T) {
	assert.Nil(t, Retryable(nil))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("balance too low")))
}

func TestOrderRequest_Notional(t *testing.T) {
	req := OrderRequest{Price: 0.52, Size: 100}
	assert.InDelta(t, 52.0, req.Notional(), 1e-9)
}

// --- Eventos ---

func validEvent() WhaleTradeEvent {
	return WhaleTradeEvent{
		TokenID:    "123456",
		Side:       SideBuy,
		Shares:     1500,
		Price:      0.52,
		USDValue:   780,
		TxHash:     "0xabc",
		ObservedAt: time.Now(),
	}
}

func TestWhaleTradeEvent_Validate(t *testing.T) {
	assert.NoError(t, validEvent().Validate())

	ev := validEvent()
	ev.TokenID = ""
	assert.Error(t, ev.Validate())

	ev = validEvent()
	ev.Side = "HOLD"
	assert.Error(t, ev.Validate())

	ev = validEvent()
	ev.Shares = 0
	assert.Error(t, ev.Validate())

	ev = validEvent()
	ev.Price = 1.0
	assert.Error(t, ev.Validate())

	ev = validEvent()
	ev.TxHash = ""
	assert.Error(t, ev.Validate())
}

func TestWhaleTradeEvent_DedupKey(t *testing.T) {
	ev := validEvent()
	assert.Equal(t, "0xabc|123456|BUY", ev.DedupKey())

	// misma tx, distinto lado → claves distintas
	sell := ev
	sell.Side = SideSell
	assert.NotEqual(t, ev.DedupKey(), sell.DedupKey())
}
