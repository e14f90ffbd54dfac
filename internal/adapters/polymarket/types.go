package polymarket

import "encoding/json"

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- CLOB API ---

// orderBookResponse es la respuesta de GET /book.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket contiene la metadata de un mercado. Gamma devuelve algunos
// campos numéricos como strings JSON, usamos json.Number donde hace falta.
type gammaMarket struct {
	ConditionID string       `json:"conditionId"`
	Question    string       `json:"question"`
	Slug        string       `json:"slug"`
	NegRisk     bool         `json:"negRisk"`
	Active      bool         `json:"active"`
	Closed      bool         `json:"closed"`
	Events      []gammaEvent `json:"events"`
}

// gammaEvent es el evento padre de un mercado (partido, torneo, elección).
type gammaEvent struct {
	Slug string     `json:"slug"`
	Live bool       `json:"live"`
	Tags []gammaTag `json:"tags"`
}

// gammaTag clasifica el evento (tennis, soccer, politics, ...).
type gammaTag struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// --- Data API ---

// dataTrade es un fill público de un usuario en GET /trades.
type dataTrade struct {
	TransactionHash string      `json:"transactionHash"`
	Asset           string      `json:"asset"`
	Side            string      `json:"side"`
	Price           json.Number `json:"price"`
	Size            json.Number `json:"size"`
	Timestamp       json.Number `json:"timestamp"`
	Slug            string      `json:"slug"`
}

// dataValue es la respuesta de GET /value: valor de cartera de un usuario.
type dataValue struct {
	User  string      `json:"user"`
	Value json.Number `json:"value"`
}
