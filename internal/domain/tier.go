package domain

// TierParams son los parámetros de ejecución asociados a un rango de tamaño
// del trade de la ballena. Trades más grandes señalan más convicción: pagan
// un buffer de precio mayor, escalan el tamaño copiado y persiguen el precio
// en el primer reintento.
type TierParams struct {
	MinShares         float64 // umbral inferior del tier (inclusivo)
	BaseBuffer        float64 // buffer base sumado/restado al precio de la ballena
	SizeMultiplier    float64 // multiplicador sobre el tamaño escalado
	MaxResubmits      int     // reenvíos tras el envío inicial (el último es GTD)
	ChaseFirstRetry   bool    // si el primer reintento incrementa el precio
	ResubmitMaxBuffer float64 // buffer máximo adicional permitido al reintentar
}

// tierTable está ordenada de mayor a menor umbral; gana el primer tier cuyo
// MinShares sea <= shares. El último (MinShares 0) es el catch-all.
var tierTable = []TierParams{
	{MinShares: 4000, BaseBuffer: 0.01, SizeMultiplier: 1.25, MaxResubmits: 5, ChaseFirstRetry: true, ResubmitMaxBuffer: 0.01},
	{MinShares: 2000, BaseBuffer: 0.01, SizeMultiplier: 1.00, MaxResubmits: 4, ChaseFirstRetry: false, ResubmitMaxBuffer: 0.00},
	{MinShares: 1000, BaseBuffer: 0.00, SizeMultiplier: 1.00, MaxResubmits: 4, ChaseFirstRetry: false, ResubmitMaxBuffer: 0.00},
	{MinShares: 0, BaseBuffer: 0.00, SizeMultiplier: 1.00, MaxResubmits: 4, ChaseFirstRetry: false, ResubmitMaxBuffer: 0.00},
}

// ResolveTier devuelve los parámetros del tier para un tamaño de ballena.
// El límite es inclusivo: 4000 shares cae en el tier >= 4000.
func ResolveTier(whaleShares float64) TierParams {
	for _, t := range tierTable {
		if whaleShares >= t.MinShares {
			return t
		}
	}
	return tierTable[len(tierTable)-1]
}
