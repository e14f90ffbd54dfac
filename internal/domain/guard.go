package domain

// guard.go — per-token circuit breaker for whale-trade copying.
//
// Detects "trap" patterns: a burst of large whale trades on one token with a
// thin book behind them usually means the whale is exiting into whoever
// copies. The guard tracks a sliding window of large trades per token and,
// when the burst threshold is hit, demands a book-depth check before
// allowing the copy. Insufficient depth trips the token for a cooldown.
//
// State transitions per token:
//
//	Normal ──large trade──▶ Sequencing ──trigger count──▶ BookCheckRequired
//	BookCheckRequired ──depth ok──▶ Sequencing (window keeps sliding)
//	BookCheckRequired ──depth low──▶ Tripped ──timer expiry──▶ Normal
//
// All checks for a token while Tripped return Block, regardless of size.

import (
	"fmt"
	"sync"
	"time"
)

// SafetyDecision is the verdict of a risk check.
type SafetyDecision int

const (
	SafetyAllow SafetyDecision = iota
	SafetyFetchBook
	SafetyBlock
)

func (d SafetyDecision) String() string {
	switch d {
	case SafetyAllow:
		return "ALLOW"
	case SafetyFetchBook:
		return "FETCH_BOOK"
	case SafetyBlock:
		return "BLOCK"
	default:
		return "UNKNOWN"
	}
}

// SafetyReason explains a safety decision. Block reasons end up in the
// RISK_BLOCKED:<reason> terminal status.
type SafetyReason string

const (
	ReasonSmallTrade      SafetyReason = "small_trade"
	ReasonSeqOk           SafetyReason = "seq_ok"
	ReasonSeqNeedBook     SafetyReason = "seq_need_book"
	ReasonTripped         SafetyReason = "tripped"
	ReasonTrap            SafetyReason = "trap"
	ReasonDepthOk         SafetyReason = "depth_ok"
	ReasonBookFetchFailed SafetyReason = "book_fetch_failed"
)

// SafetyEvaluation is produced fresh per trade; Count carries the current
// consecutive-large-trade count inside the window, Detail is human context
// for logs and the audit trail.
type SafetyEvaluation struct {
	Decision SafetyDecision
	Reason   SafetyReason
	Count    int
	Detail   string
}

// GuardConfig holds the circuit-breaker thresholds. All externally supplied;
// zero values are replaced by DefaultGuardConfig in config loading.
type GuardConfig struct {
	LargeTradeShares   float64       // trades at or above this count toward the sequence
	SequenceWindow     time.Duration // sliding window for consecutive large trades
	ConsecutiveTrigger int           // large trades inside the window that force a book check
	MinDepthUSD        float64       // book depth below this trips the token
	TripDuration       time.Duration // how long a tripped token stays blocked
}

// DefaultGuardConfig returns the production thresholds.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		LargeTradeShares:   1500,
		SequenceWindow:     30 * time.Second,
		ConsecutiveTrigger: 2,
		MinDepthUSD:        200,
		TripDuration:       120 * time.Second,
	}
}

// tokenRiskState is owned exclusively by the guard and mutated only under
// its mutex. Created lazily on the first large trade for a token.
type tokenRiskState struct {
	seq          []time.Time // large-trade timestamps, pruned to the window
	trippedUntil time.Time
}

// RiskGuard is the injectable circuit-breaker state. A single mutex guards
// all tokens: trade frequency is low enough that per-token locking would be
// complexity without benefit.
type RiskGuard struct {
	mu     sync.Mutex
	cfg    GuardConfig
	tokens map[string]*tokenRiskState
}

// NewRiskGuard creates a guard with the given thresholds.
func NewRiskGuard(cfg GuardConfig) *RiskGuard {
	return &RiskGuard{
		cfg:    cfg,
		tokens: make(map[string]*tokenRiskState),
	}
}

// CheckFast is the first-stage check, called for every candidate copy.
// It never does I/O. A FetchBook verdict means the caller must fetch the
// order book and complete the check with CheckWithBook.
func (g *RiskGuard) CheckFast(tokenID string, shares float64, now time.Time) SafetyEvaluation {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.tokens[tokenID]

	if shares < g.cfg.LargeTradeShares {
		if st != nil && now.Before(st.trippedUntil) {
			return g.blockedEval(st, now)
		}
		return SafetyEvaluation{Decision: SafetyAllow, Reason: ReasonSmallTrade}
	}

	if st == nil {
		st = &tokenRiskState{}
		g.tokens[tokenID] = st
	}

	st.seq = pruneWindow(st.seq, now.Add(-g.cfg.SequenceWindow))
	st.seq = append(st.seq, now)
	count := len(st.seq)

	if now.Before(st.trippedUntil) {
		return g.blockedEval(st, now)
	}

	if count >= g.cfg.ConsecutiveTrigger {
		return SafetyEvaluation{
			Decision: SafetyFetchBook,
			Reason:   ReasonSeqNeedBook,
			Count:    count,
			Detail:   fmt.Sprintf("%d large trades in %s", count, g.cfg.SequenceWindow),
		}
	}
	return SafetyEvaluation{Decision: SafetyAllow, Reason: ReasonSeqOk, Count: count}
}

// CheckWithBook is the second-stage check after a FetchBook verdict. A thin
// book trips the token for the configured cooldown.
func (g *RiskGuard) CheckWithBook(tokenID string, count int, depthUSD float64, now time.Time) SafetyEvaluation {
	g.mu.Lock()
	defer g.mu.Unlock()

	if depthUSD < g.cfg.MinDepthUSD {
		st := g.tokens[tokenID]
		if st == nil {
			st = &tokenRiskState{}
			g.tokens[tokenID] = st
		}
		st.trippedUntil = now.Add(g.cfg.TripDuration)
		return SafetyEvaluation{
			Decision: SafetyBlock,
			Reason:   ReasonTrap,
			Count:    count,
			Detail:   fmt.Sprintf("depth $%.0f < $%.0f, tripped %s", depthUSD, g.cfg.MinDepthUSD, g.cfg.TripDuration),
		}
	}
	return SafetyEvaluation{
		Decision: SafetyAllow,
		Reason:   ReasonDepthOk,
		Count:    count,
		Detail:   fmt.Sprintf("depth $%.0f", depthUSD),
	}
}

// BookFetchFailure is the fail-closed verdict when the depth check itself
// could not run. It does not trip the token: the next trade re-evaluates.
func BookFetchFailure(count int, err error) SafetyEvaluation {
	return SafetyEvaluation{
		Decision: SafetyBlock,
		Reason:   ReasonBookFetchFailed,
		Count:    count,
		Detail:   err.Error(),
	}
}

// blockedEval builds the Block verdict for a tripped token. Caller holds the
// mutex.
func (g *RiskGuard) blockedEval(st *tokenRiskState, now time.Time) SafetyEvaluation {
	remaining := st.trippedUntil.Sub(now).Round(time.Second)
	return SafetyEvaluation{
		Decision: SafetyBlock,
		Reason:   ReasonTripped,
		Count:    len(st.seq),
		Detail:   fmt.Sprintf("%s remaining", remaining),
	}
}

// pruneWindow drops timestamps at or before the cutoff, keeping order.
func pruneWindow(seq []time.Time, cutoff time.Time) []time.Time {
	kept := seq[:0]
	for _, t := range seq {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
