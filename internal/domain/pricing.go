package domain

import "math"

// Límites de precio válidos en el CLOB. Ninguna orden sale de este rango.
const (
	MinLimitPrice = 0.01
	MaxLimitPrice = 0.99
)

// sportBuffer es el buffer adicional por categoría deportiva. Los mercados
// de tenis y fútbol se mueven rápido durante el partido; pagar un centavo
// más compra probabilidad de fill.
const sportBuffer = 0.01

// CategoryBuffer suma los buffers de categoría aplicables. Las categorías
// apilan: un token que sea a la vez tenis y fútbol suma ambos.
func CategoryBuffer(tennis, soccer bool) float64 {
	var buf float64
	if tennis {
		buf += sportBuffer
	}
	if soccer {
		buf += sportBuffer
	}
	return buf
}

// LimitPrice calcula el precio límite de la copia a partir del precio de la
// ballena. Compras pagan por encima, ventas ceden por debajo; el resultado
// queda siempre dentro de [0.01, 0.99].
func LimitPrice(whalePrice float64, side Side, baseBuffer, categoryBuffer float64) float64 {
	total := baseBuffer + categoryBuffer
	if side.IsBuy() {
		p := whalePrice + total
		if p > MaxLimitPrice {
			p = MaxLimitPrice
		}
		return p
	}
	p := whalePrice - total
	if p < MinLimitPrice {
		p = MinLimitPrice
	}
	return p
}

// ClampPrice acota un precio arbitrario al rango válido del CLOB. Lo usa la
// cadena de reenvíos al escalar precios.
func ClampPrice(p float64) float64 {
	if p > MaxLimitPrice {
		return MaxLimitPrice
	}
	if p < MinLimitPrice {
		return MinLimitPrice
	}
	return p
}

// Round2 redondea un tamaño a 2 decimales, el paso mínimo que acepta el
// exchange para shares.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
