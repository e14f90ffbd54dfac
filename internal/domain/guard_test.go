package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testGuard() *RiskGuard {
	return NewRiskGuard(DefaultGuardConfig())
}

func TestRiskGuard_SmallTradeAllowed(t *testing.T) {
	g := testGuard()
	eval := g.CheckFast("tok", 100, time.Now())
	assert.Equal(t, SafetyAllow, eval.Decision)
	assert.Equal(t, ReasonSmallTrade, eval.Reason)
}

func TestRiskGuard_FirstLargeTradeAllowed(t *testing.T) {
	g := testGuard()
	eval := g.CheckFast("tok", 2000, time.Now())
	assert.Equal(t, SafetyAllow, eval.Decision)
	assert.Equal(t, ReasonSeqOk, eval.Reason)
	assert.Equal(t, 1, eval.Count)
}

func TestRiskGuard_SecondLargeTradeNeedsBook(t *testing.T) {
	g := testGuard()
	now := time.Now()
	g.CheckFast("tok", 2000, now)
	eval := g.CheckFast("tok", 1800, now.Add(5*time.Second))
	assert.Equal(t, SafetyFetchBook, eval.Decision)
	assert.Equal(t, ReasonSeqNeedBook, eval.Reason)
	assert.Equal(t, 2, eval.Count)
}

func TestRiskGuard_SequenceWindowSlides(t *testing.T) {
	g := testGuard()
	now := time.Now()
	g.CheckFast("tok", 2000, now)

	// 31s después, el primer trade ya salió de la ventana de 30s
	eval := g.CheckFast("tok", 2000, now.Add(31*time.Second))
	assert.Equal(t, SafetyAllow, eval.Decision)
	assert.Equal(t, 1, eval.Count)
}

func TestRiskGuard_SequencePerToken(t *testing.T) {
	g := testGuard()
	now := time.Now()
	g.CheckFast("tokA", 2000, now)
	eval := g.CheckFast("tokB", 2000, now.Add(time.Second))
	assert.Equal(t, SafetyAllow, eval.Decision, "tokens cuentan secuencias por separado")
}

// --- Segunda etapa: profundidad del book ---

func TestRiskGuard_ThinBookTrips(t *testing.T) {
	g := testGuard()
	now := time.Now()

	eval := g.CheckWithBook("tok", 2, 150, now)
	assert.Equal(t, SafetyBlock, eval.Decision)
	assert.Equal(t, ReasonTrap, eval.Reason)

	// el token queda trippeado: hasta los trades pequeños se bloquean
	small := g.CheckFast("tok", 50, now.Add(10*time.Second))
	assert.Equal(t, SafetyBlock, small.Decision)
	assert.Equal(t, ReasonTripped, small.Reason)
}

func TestRiskGuard_TripExpires(t *testing.T) {
	g := testGuard()
	now := time.Now()
	g.CheckWithBook("tok", 2, 150, now)

	eval := g.CheckFast("tok", 50, now.Add(121*time.Second))
	assert.Equal(t, SafetyAllow, eval.Decision)
}

func TestRiskGuard_DeepBookAllows(t *testing.T) {
	g := testGuard()
	eval := g.CheckWithBook("tok", 2, 5000, time.Now())
	assert.Equal(t, SafetyAllow, eval.Decision)
	assert.Equal(t, ReasonDepthOk, eval.Reason)
}

func TestBookFetchFailure_FailsClosed(t *testing.T) {
	eval := BookFetchFailure(2, errors.New("http 500"))
	assert.Equal(t, SafetyBlock, eval.Decision)
	assert.Equal(t, ReasonBookFetchFailed, eval.Reason)
	assert.Contains(t, eval.Detail, "http 500")
}

// El fallo del fetch no trippea: el siguiente trade del token reevalúa.
func TestBookFetchFailure_DoesNotTrip(t *testing.T) {
	g := testGuard()
	now := time.Now()
	g.CheckFast("tok", 2000, now)
	_ = BookFetchFailure(2, errors.New("timeout"))

	eval := g.CheckFast("tok", 100, now.Add(time.Second))
	assert.Equal(t, SafetyAllow, eval.Decision)
}
