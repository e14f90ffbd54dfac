package ports

import "context"

// MarketInfo es el resultado de una consulta de metadatos de un token.
type MarketInfo struct {
	Slug    string
	Tennis  bool
	Soccer  bool
	Live    bool
	NegRisk bool
}

// MarketMetadata resuelve metadatos de mercado por token id. Las
// implementaciones cachean: la ruta caliente del pipeline no puede
// bloquear en red salvo en el primer miss de un token.
type MarketMetadata interface {
	// Lookup devuelve los metadatos del token. En caso de error devuelve
	// el MarketInfo cero, que el pipeline trata como "sin buffers, no
	// live, sin neg-risk".
	Lookup(ctx context.Context, tokenID string) (MarketInfo, error)
}
