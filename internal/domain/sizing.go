package domain

import "math/rand"

// SizingOutcome clasifica cómo se decidió el tamaño de la copia.
type SizingOutcome string

const (
	// SizingScaled: tamaño determinista, escalado del trade de la ballena.
	SizingScaled SizingOutcome = "SCALED"
	// SizingProbHit: trade pequeño ejecutado al mínimo tras ganar el sorteo.
	SizingProbHit SizingOutcome = "PROB_HIT"
	// SizingProbSkip: trade pequeño descartado tras perder el sorteo.
	SizingProbSkip SizingOutcome = "PROB_SKIP"
	// SizingBelowFloor: el trade de la ballena no llega al umbral de copia.
	SizingBelowFloor SizingOutcome = "BELOW_FLOOR"
)

// SizingDecision es el resultado del sizer: cuántas shares copiar y por qué.
// Probability solo es significativa en los resultados PROB_*.
type SizingDecision struct {
	Size        float64
	Outcome     SizingOutcome
	Probability float64
}

// SizerConfig parametriza el cálculo de tamaño. Todos los valores vienen de
// configuración; el sizer nunca los decide por su cuenta.
type SizerConfig struct {
	ScalingRatio  float64 // fracción del tamaño de la ballena (0.02 = 2%)
	MinCashValue  float64 // valor mínimo de una orden en USDC
	MinShareCount float64 // mínimo de shares por orden
	MinCopyShares float64 // trades de ballena por debajo no se copian
	Probabilistic bool    // sorteo ponderado para trades bajo el mínimo
}

// DefaultSizerConfig devuelve los parámetros de producción.
func DefaultSizerConfig() SizerConfig {
	return SizerConfig{
		ScalingRatio:  0.02,
		MinCashValue:  1.01,
		MinShareCount: 0,
		MinCopyShares: 1.0,
		Probabilistic: true,
	}
}

// Sizer calcula el tamaño de la orden copiada. Es una función pura salvo por
// la fuente de aleatoriedad inyectada, que los tests reemplazan por una
// secuencia determinista.
type Sizer struct {
	cfg    SizerConfig
	randFn func() float64
}

// NewSizer crea un Sizer. Si randFn es nil usa rand.Float64.
func NewSizer(cfg SizerConfig, randFn func() float64) *Sizer {
	if randFn == nil {
		randFn = rand.Float64
	}
	return &Sizer{cfg: cfg, randFn: randFn}
}

// MinViable devuelve el tamaño mínimo ejecutable a un precio dado:
// max(MinShareCount, MinCashValue / price). La cadena de reenvíos lo usa
// para decidir si un resto parcial merece otro intento.
func (s *Sizer) MinViable(price float64) float64 {
	minimum := s.cfg.MinShareCount
	if price > 0 {
		if byCash := s.cfg.MinCashValue / price; byCash > minimum {
			minimum = byCash
		}
	}
	return minimum
}

// Size decide el tamaño de la copia para un trade de la ballena.
//
//	objetivo   = whaleShares × ScalingRatio × tierMultiplier
//	mínimo     = max(MinCashValue / price, MinShareCount)
//
// Si el objetivo alcanza el mínimo se copia el objetivo tal cual. Si no, con
// sizing probabilístico activo se ejecuta el mínimo con probabilidad
// objetivo/mínimo (y se descarta en caso contrario); desactivado, se ejecuta
// siempre el mínimo. El caller valida price > 0 antes de llamar.
func (s *Sizer) Size(whaleShares, price, tierMultiplier float64) SizingDecision {
	if whaleShares < s.cfg.MinCopyShares {
		return SizingDecision{Outcome: SizingBelowFloor}
	}

	scaled := whaleShares * s.cfg.ScalingRatio * tierMultiplier

	minimum := s.cfg.MinShareCount
	if price > 0 {
		if byCash := s.cfg.MinCashValue / price; byCash > minimum {
			minimum = byCash
		}
	}

	if scaled >= minimum {
		return SizingDecision{Size: scaled, Outcome: SizingScaled}
	}

	if !s.cfg.Probabilistic {
		return SizingDecision{Size: minimum, Outcome: SizingScaled}
	}

	// minimum > scaled >= 0 aquí, así que minimum > 0 y p ∈ [0, 1).
	p := scaled / minimum
	if s.randFn() < p {
		return SizingDecision{Size: minimum, Outcome: SizingProbHit, Probability: p}
	}
	return SizingDecision{Outcome: SizingProbSkip, Probability: p}
}
