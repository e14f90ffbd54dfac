package polymarket

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

// mapOrderBook convierte la respuesta de /book a domain.OrderBook.
func mapOrderBook(r orderBookResponse) domain.OrderBook {
	return domain.OrderBook{
		TokenID: r.AssetID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}

// mapMarketInfo resume un gammaMarket en los metadatos que usa el pipeline.
// La categoría sale de los tags del evento padre, con fallback a keywords en
// el slug para mercados viejos sin tags.
func mapMarketInfo(gm gammaMarket) ports.MarketInfo {
	info := ports.MarketInfo{
		Slug:    gm.Slug,
		NegRisk: gm.NegRisk,
	}

	slugs := []string{strings.ToLower(gm.Slug)}
	for _, ev := range gm.Events {
		if ev.Live {
			info.Live = true
		}
		slugs = append(slugs, strings.ToLower(ev.Slug))
		for _, tag := range ev.Tags {
			slugs = append(slugs, strings.ToLower(tag.Slug))
		}
	}

	for _, s := range slugs {
		if containsAny(s, "tennis", "atp", "wta", "roland-garros", "wimbledon", "us-open-tennis") {
			info.Tennis = true
		}
		if containsAny(s, "soccer", "epl", "la-liga", "serie-a", "bundesliga", "ligue-1", "champions-league", "uel", "mls") {
			info.Soccer = true
		}
	}

	return info
}

func containsAny(s string, targets ...string) bool {
	for _, t := range targets {
		if s == t || strings.Contains(s, t) {
			return true
		}
	}
	return false
}
