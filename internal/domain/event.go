package domain

import (
	"fmt"
	"time"
)

// Side es el lado de un trade: compra o venta.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IsBuy devuelve true si el lado es compra.
func (s Side) IsBuy() bool {
	return s == SideBuy
}

// WhaleTradeEvent es un fill de la ballena observado on-chain.
// Lo produce un adaptador de ingesta; el pipeline lo consume exactamente
// una vez (dedup por DedupKey) y nunca lo muta.
type WhaleTradeEvent struct {
	TokenID    string  // CLOB token id (uint256 en decimal)
	Side       Side
	Shares     float64 // cantidad de shares del fill (> 0)
	Price      float64 // precio por share en (0, 1)
	USDValue   float64 // Shares × Price, tal como se liquidó on-chain
	TxHash     string
	Block      uint64
	ObservedAt time.Time
}

// Validate rechaza eventos malformados antes de que entren al pipeline.
func (e WhaleTradeEvent) Validate() error {
	if e.TokenID == "" {
		return fmt.Errorf("event: empty token id")
	}
	if e.Side != SideBuy && e.Side != SideSell {
		return fmt.Errorf("event: invalid side %q", e.Side)
	}
	if e.Shares <= 0 {
		return fmt.Errorf("event: non-positive shares %.4f", e.Shares)
	}
	if e.Price <= 0 || e.Price >= 1 {
		return fmt.Errorf("event: price %.4f outside (0, 1)", e.Price)
	}
	if e.TxHash == "" {
		return fmt.Errorf("event: empty tx hash")
	}
	return nil
}

// DedupKey identifica el fill para idempotencia. Una misma transacción puede
// emitir varios fills (distintos tokens o lados), así que la clave incluye
// token y lado además del hash.
func (e WhaleTradeEvent) DedupKey() string {
	return e.TxHash + "|" + e.TokenID + "|" + string(e.Side)
}
