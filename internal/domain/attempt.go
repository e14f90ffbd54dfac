// attempt.go — tipos del ciclo de vida de una orden copiada: petición,
// resultado de un intento individual y estado terminal de la cadena completa.

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OrderType distingue órdenes inmediatas de órdenes que descansan en el book.
type OrderType string

const (
	// OrderTypeFAK (fill-and-kill) ejecuta lo que cruce y cancela el resto.
	OrderTypeFAK OrderType = "FAK"
	// OrderTypeGTD descansa en el book hasta su expiración.
	OrderTypeGTD OrderType = "GTD"
)

// OrderRequest es una orden lista para firmar y enviar al CLOB.
type OrderRequest struct {
	TokenID    string
	Side       Side
	Price      float64   // precio límite ya redondeado al tick del mercado
	Size       float64   // shares
	Type       OrderType
	Expiration time.Time // solo GTD; cero para FAK
	NegRisk    bool      // el mercado liquida vía el adaptador neg-risk
}

// Notional devuelve el coste máximo en USDC de la orden.
func (r OrderRequest) Notional() float64 {
	return r.Price * r.Size
}

// OrderResult es la respuesta del CLOB a un único envío.
type OrderResult struct {
	OrderID    string
	FilledSize float64 // shares ejecutadas en este envío
	Resting    bool    // GTD aceptada y descansando en el book
}

// OrderAttempt registra un envío dentro de la cadena de reenvíos. Se persiste
// para auditoría: la cadena completa reconstruye por qué terminó como terminó.
type OrderAttempt struct {
	Number      int // 1 = envío inicial
	Price       float64
	Size        float64
	Type        OrderType
	FilledSize  float64
	OrderID     string
	Err         string // vacío si el envío fue aceptado
	SubmittedAt time.Time
}

// CopyOrder es el registro agregado de una copia: el evento de la ballena,
// la decisión de sizing/pricing y el resultado final de la cadena.
type CopyOrder struct {
	ID          string // UUID local
	EventKey    string // WhaleTradeEvent.DedupKey()
	TokenID     string
	Side        Side
	Slug        string
	WhaleShares float64
	WhalePrice  float64
	CopySize    float64 // shares pedidas en el primer intento
	LimitPrice  float64 // precio del primer intento
	FilledSize  float64 // total ejecutado en toda la cadena
	Attempts    int
	Status      string // estado terminal, ver constantes Status*
	CreatedAt   time.Time
	ClosedAt    time.Time
}

// CopyStats agrega los contadores de copias para el resumen de consola.
type CopyStats struct {
	Total        int
	Successes    int
	Partials     int
	Resting      int
	Skipped      int
	Failed       int
	FilledShares float64
	NotionalUSD  float64
}

// Estados terminales de una copia. Los estados con parámetros se construyen
// con los helpers de abajo; Terminal() y sus variantes los reconocen a todos.
const (
	StatusSkippedSmall       = "SKIPPED_SMALL"
	StatusSkippedDisabled    = "SKIPPED_DISABLED"
	StatusSkippedProbability = "SKIPPED_PROBABILITY"
	StatusResting            = "RESTING"
	StatusQueueErr           = "QUEUE_ERR"

	statusRiskBlockedPrefix = "RISK_BLOCKED:"
	statusSuccessPrefix     = "SUCCESS:"
	statusPartialPrefix     = "PARTIAL:"
	statusFailedPrefix      = "FAILED:"
)

// StatusRiskBlocked construye el estado de una copia vetada por el guard.
func StatusRiskBlocked(reason string) string {
	return statusRiskBlockedPrefix + reason
}

// StatusSuccess construye el estado de una cadena completamente ejecutada.
func StatusSuccess(filled, requested float64) string {
	return fmt.Sprintf("%s%.2f/%.2f", statusSuccessPrefix, filled, requested)
}

// StatusPartial construye el estado de una cadena agotada con fill parcial.
func StatusPartial(filled, requested float64) string {
	return fmt.Sprintf("%s%.2f/%.2f", statusPartialPrefix, filled, requested)
}

// StatusFailed construye el estado de una cadena abortada sin fill.
func StatusFailed(reason string) string {
	return statusFailedPrefix + sanitizeReason(reason)
}

// IsSuccess devuelve true si la cadena ejecutó todo lo pedido.
func IsSuccess(status string) bool {
	return strings.HasPrefix(status, statusSuccessPrefix)
}

// IsPartial devuelve true si la cadena se agotó con fill parcial.
func IsPartial(status string) bool {
	return strings.HasPrefix(status, statusPartialPrefix)
}

// IsSkipped devuelve true para cualquier descarte previo al envío.
func IsSkipped(status string) bool {
	return strings.HasPrefix(status, "SKIPPED_") ||
		strings.HasPrefix(status, statusRiskBlockedPrefix) ||
		status == StatusQueueErr
}

// RetryableError marca un error de envío que la cadena de reenvíos puede
// reintentar (rechazo FAK, timeout transitorio). El resto de errores del
// ejecutor abortan la cadena.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable envuelve err como reintentable.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable devuelve true si err (o algo en su cadena) es reintentable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// sanitizeReason aplana el motivo para que el estado quepa en una línea de log.
func sanitizeReason(reason string) string {
	reason = strings.ReplaceAll(reason, "\n", " ")
	if len(reason) > 120 {
		reason = reason[:120]
	}
	return reason
}
