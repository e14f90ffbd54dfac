package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

func TestMapBookEntries_SortsAndFilters(t *testing.T) {
	raw := []bookEntryRaw{
		{Price: "0.55", Size: "200"},
		{Price: "0.52", Size: "100"},
		{Price: "0", Size: "50"},   // precio inválido
		{Price: "0.60", Size: "0"}, // size inválido
		{Price: "bad", Size: "10"}, // no parsea
	}

	asks := mapBookEntries(raw, true)
	require.Len(t, asks, 2)
	assert.Equal(t, 0.52, asks[0].Price)
	assert.Equal(t, 0.55, asks[1].Price)

	bids := mapBookEntries(raw, false)
	require.Len(t, bids, 2)
	assert.Equal(t, 0.55, bids[0].Price)
	assert.Equal(t, 0.52, bids[1].Price)
}

func TestMapOrderBook(t *testing.T) {
	book := mapOrderBook(orderBookResponse{
		AssetID: "123",
		Bids:    []bookEntryRaw{{Price: "0.48", Size: "100"}},
		Asks:    []bookEntryRaw{{Price: "0.52", Size: "100"}},
	})
	assert.Equal(t, "123", book.TokenID)
	assert.Equal(t, 0.48, book.BestBid())
	assert.Equal(t, 0.52, book.BestAsk())
}

// --- Metadata de mercado ---

func TestMapMarketInfo_TennisFromEventTag(t *testing.T) {
	info := mapMarketInfo(gammaMarket{
		Slug: "alcaraz-vs-sinner-set-1",
		Events: []gammaEvent{{
			Slug: "us-open-tennis-2026",
			Live: true,
			Tags: []gammaTag{{Slug: "tennis", Label: "Tennis"}},
		}},
	})
	assert.True(t, info.Tennis)
	assert.False(t, info.Soccer)
	assert.True(t, info.Live)
}

func TestMapMarketInfo_SoccerFromSlugKeyword(t *testing.T) {
	info := mapMarketInfo(gammaMarket{
		Slug: "epl-arsenal-vs-chelsea",
	})
	assert.True(t, info.Soccer)
	assert.False(t, info.Tennis)
	assert.False(t, info.Live)
}

func TestMapMarketInfo_PlainMarket(t *testing.T) {
	info := mapMarketInfo(gammaMarket{
		Slug:    "will-x-happen",
		NegRisk: true,
		Events:  []gammaEvent{{Slug: "some-election", Tags: []gammaTag{{Slug: "politics"}}}},
	})
	assert.False(t, info.Tennis)
	assert.False(t, info.Soccer)
	assert.True(t, info.NegRisk)
	assert.Equal(t, "will-x-happen", info.Slug)
}

// --- Data API ---

func TestMapDataTrade(t *testing.T) {
	ev, err := mapDataTrade(dataTrade{
		TransactionHash: "0xabc",
		Asset:           "123456",
		Side:            "buy",
		Price:           json.Number("0.52"),
		Size:            json.Number("1500"),
		Timestamp:       json.Number("1756600000"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SideBuy, ev.Side)
	assert.Equal(t, 1500.0, ev.Shares)
	assert.InDelta(t, 780.0, ev.USDValue, 0.001)
	assert.Equal(t, int64(1756600000), ev.ObservedAt.Unix())
}

func TestMapDataTrade_RejectsMalformed(t *testing.T) {
	_, err := mapDataTrade(dataTrade{
		TransactionHash: "0xabc",
		Asset:           "123456",
		Side:            "hold",
		Price:           json.Number("0.52"),
		Size:            json.Number("100"),
	})
	assert.Error(t, err)
}

func TestParseTradeTimestamp_Formats(t *testing.T) {
	// segundos
	ts := parseTradeTimestamp(json.Number("1756600000"))
	assert.Equal(t, int64(1756600000), ts.Unix())

	// milisegundos
	ts = parseTradeTimestamp(json.Number("1756600000123"))
	assert.Equal(t, int64(1756600000), ts.Unix())

	// float con fracción
	ts = parseTradeTimestamp(json.Number("1756600000.5"))
	assert.Equal(t, int64(1756600000), ts.Unix())

	assert.True(t, parseTradeTimestamp(json.Number("garbage")).IsZero())
}

func TestRetryableCLOBError(t *testing.T) {
	assert.True(t, retryableCLOBError("order killed: FAK not filled"))
	assert.True(t, retryableCLOBError("FOK order killed"))
	assert.True(t, retryableCLOBError("matching delayed, try again"))
	assert.True(t, retryableCLOBError("request timeout"))
	assert.False(t, retryableCLOBError("not enough balance / allowance"))
	assert.False(t, retryableCLOBError("invalid order payload"))
	assert.False(t, retryableCLOBError(""))
}

func TestFilledShares_BySide(t *testing.T) {
	resp := clobOrderResponse{
		MakingAmount: "30000000", // 30 unidades micro
		TakingAmount: "60000000", // 60 shares micro
	}
	assert.Equal(t, 60.0, filledShares(domain.SideBuy, resp))
	assert.Equal(t, 30.0, filledShares(domain.SideSell, resp))
}
