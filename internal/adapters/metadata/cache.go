package metadata

// cache.go — Cache de metadatos de mercado con refresh periódico.
//
// La ruta caliente del pipeline consulta categoría, live y neg-risk por cada
// fill de la ballena; ir a Gamma cada vez añadiría cientos de ms al envío.
// El cache sirve lecturas con RLock y solo bloquea en red en el primer miss
// de un token. Un refresher de fondo rehace los lookups para que el estado
// live no se quede viejo durante un partido.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/whalebot/internal/ports"
)

const (
	defaultTTL             = 10 * time.Minute
	defaultRefreshInterval = 2 * time.Minute
)

// Source resuelve metadatos contra la API. Lo implementa polymarket.Client.
type Source interface {
	FetchMarketInfo(ctx context.Context, tokenID string) (ports.MarketInfo, error)
}

type entry struct {
	info      ports.MarketInfo
	fetchedAt time.Time
}

// Cache implements ports.MarketMetadata.
type Cache struct {
	source Source
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache crea un cache sobre el source dado.
func NewCache(source Source) *Cache {
	return &Cache{
		source:  source,
		ttl:     defaultTTL,
		entries: map[string]entry{},
	}
}

// Lookup devuelve los metadatos del token, del cache si siguen frescos.
// Si el fetch falla pero hay una entrada vieja, la sirve antes que fallar:
// unos metadatos rancios solo desvían el buffer de precio, no el riesgo.
func (c *Cache) Lookup(ctx context.Context, tokenID string) (ports.MarketInfo, error) {
	c.mu.RLock()
	e, ok := c.entries[tokenID]
	c.mu.RUnlock()

	if ok && time.Since(e.fetchedAt) < c.ttl {
		return e.info, nil
	}

	info, err := c.source.FetchMarketInfo(ctx, tokenID)
	if err != nil {
		if ok {
			slog.Debug("metadata refresh failed, serving stale entry", "token", shortToken(tokenID), "err", err)
			return e.info, nil
		}
		return ports.MarketInfo{}, err
	}

	c.mu.Lock()
	c.entries[tokenID] = entry{info: info, fetchedAt: time.Now()}
	c.mu.Unlock()

	return info, nil
}

// StartRefresh lanza el refresher de fondo. Devuelve inmediatamente; el
// goroutine muere con el contexto.
func (c *Cache) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.refreshAll(ctx)
			}
		}
	}()
}

// refreshAll rehace el lookup de cada token conocido. Secuencial a propósito:
// el rate limiter de Gamma ya marca el ritmo y no hay prisa.
func (c *Cache) refreshAll(ctx context.Context) {
	c.mu.RLock()
	tokens := make([]string, 0, len(c.entries))
	for t := range c.entries {
		tokens = append(tokens, t)
	}
	c.mu.RUnlock()

	refreshed := 0
	for _, tokenID := range tokens {
		if ctx.Err() != nil {
			return
		}
		info, err := c.source.FetchMarketInfo(ctx, tokenID)
		if err != nil {
			slog.Debug("background metadata refresh failed", "token", shortToken(tokenID), "err", err)
			continue
		}
		c.mu.Lock()
		c.entries[tokenID] = entry{info: info, fetchedAt: time.Now()}
		c.mu.Unlock()
		refreshed++
	}

	if refreshed > 0 {
		slog.Debug("metadata cache refreshed", "tokens", refreshed)
	}
}

// Len devuelve cuántos tokens hay cacheados.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func shortToken(tokenID string) string {
	if len(tokenID) <= 10 {
		return tokenID
	}
	return tokenID[:10] + "..."
}
