package domain

import "strconv"

// OrderBook representa el libro de órdenes de un token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // ordenados mayor a menor precio
	Asks    []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Midpoint devuelve el punto medio entre best bid y best ask.
func (ob OrderBook) Midpoint() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread devuelve el spread del book (ask - bid).
func (ob OrderBook) Spread() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// depthSafetyMargin desplaza el precio de referencia un 0.5% hacia el lado
// desfavorable antes de medir profundidad, para no contar liquidez que la
// propia orden consumiría.
const depthSafetyMargin = 0.005

// DepthBeyond returns the USD value of resting liquidity strictly past the
// reference price: asks above it for buys, bids below it for sells. The
// reference is shifted by the safety margin before comparing (×1.005 for
// buys, ×0.995 for sells).
func (ob OrderBook) DepthBeyond(side Side, refPrice float64) float64 {
	var total float64
	if side.IsBuy() {
		threshold := refPrice * (1 + depthSafetyMargin)
		for _, a := range ob.Asks {
			if a.Price > threshold {
				total += a.Price * a.Size
			}
		}
		return total
	}
	threshold := refPrice * (1 - depthSafetyMargin)
	for _, b := range ob.Bids {
		if b.Price < threshold {
			total += b.Price * b.Size
		}
	}
	return total
}

// TopLevels devuelve los dos mejores niveles del lado que cruzaría una orden
// (asks para compras, bids para ventas). Usado en el snapshot post-trade.
func (ob OrderBook) TopLevels(side Side) (best, second BookEntry) {
	levels := ob.Asks
	if !side.IsBuy() {
		levels = ob.Bids
	}
	if len(levels) > 0 {
		best = levels[0]
	}
	if len(levels) > 1 {
		second = levels[1]
	}
	return best, second
}

// ParsePrice convierte un string de precio a float64.
// Usado en el mapping de la API.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
