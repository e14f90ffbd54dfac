package onchain

// feed.go — On-chain whale fill ingestion for Polymarket.
//
// Subscribes to OrderFilled logs on the CTF exchange contracts via a Polygon
// WebSocket RPC, filtered by the whale address in the maker topic. Each log
// decodes into a domain.WhaleTradeEvent:
//   - makerAssetId == 0 → the whale paid USDC → BUY of takerAssetId
//   - takerAssetId == 0 → the whale delivered shares → SELL of makerAssetId
// Amounts come in micro units; price = usd / shares.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

const (
	// Exchange contracts that emit OrderFilled
	ctfExchange     = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	negRiskExchange = "0xC5d563A36AE78145C45a50134d48A1215220f80a"

	reconnectMin = 1 * time.Second
	reconnectMax = 60 * time.Second

	feedBuffer = 256
)

// OrderFilled(bytes32 indexed orderHash, address indexed maker,
// address indexed taker, uint256 makerAssetId, uint256 takerAssetId,
// uint256 makerAmountFilled, uint256 takerAmountFilled, uint256 fee)
var (
	orderFilledTopic = crypto.Keccak256Hash([]byte(
		"OrderFilled(bytes32,address,address,uint256,uint256,uint256,uint256,uint256)",
	))
	orderFilledArgs abi.Arguments
)

func init() {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic("uint256 abi type: " + err.Error())
	}
	orderFilledArgs = abi.Arguments{
		{Name: "makerAssetId", Type: uint256Type},
		{Name: "takerAssetId", Type: uint256Type},
		{Name: "makerAmountFilled", Type: uint256Type},
		{Name: "takerAmountFilled", Type: uint256Type},
		{Name: "fee", Type: uint256Type},
	}
}

// Feed implements ports.WhaleFeed over a Polygon WebSocket subscription.
type Feed struct {
	wsURL string
	whale common.Address
}

// NewFeed creates a feed for the given whale address. wsURL must be a
// wss:// Polygon endpoint; HTTP RPCs can't push logs.
func NewFeed(wsURL, whaleAddress string) (*Feed, error) {
	if !strings.HasPrefix(wsURL, "ws") {
		return nil, fmt.Errorf("onchain: rpc url %q is not a websocket endpoint", wsURL)
	}
	if !common.IsHexAddress(whaleAddress) {
		return nil, fmt.Errorf("onchain: invalid whale address %q", whaleAddress)
	}
	return &Feed{wsURL: wsURL, whale: common.HexToAddress(whaleAddress)}, nil
}

// Subscribe arranca el loop de ingesta y devuelve el canal de eventos.
// Reconecta con backoff exponencial y jitter; el canal se cierra solo
// cuando el contexto se cancela.
func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.WhaleTradeEvent, error) {
	out := make(chan domain.WhaleTradeEvent, feedBuffer)
	go f.run(ctx, out)
	return out, nil
}

func (f *Feed) run(ctx context.Context, out chan<- domain.WhaleTradeEvent) {
	defer close(out)

	backoff := reconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		err := f.streamOnce(ctx, out)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("onchain feed disconnected, reconnecting",
				"err", err,
				"backoff", backoff,
			)
		}

		// backoff exponencial con 20% de jitter
		jitter := time.Duration(rand.Int63n(int64(backoff) / 5))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff + jitter):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// streamOnce abre una conexión, se suscribe y bombea logs hasta que algo falle.
func (f *Feed) streamOnce(ctx context.Context, out chan<- domain.WhaleTradeEvent) error {
	client, err := ethclient.DialContext(ctx, f.wsURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	whaleTopic := common.BytesToHash(common.LeftPadBytes(f.whale.Bytes(), 32))
	query := ethereum.FilterQuery{
		Addresses: []common.Address{
			common.HexToAddress(ctfExchange),
			common.HexToAddress(negRiskExchange),
		},
		Topics: [][]common.Hash{
			{orderFilledTopic},
			nil,
			{whaleTopic}, // maker = la ballena
		},
	}

	logs := make(chan types.Log, feedBuffer)
	sub, err := client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	slog.Info("onchain feed connected", "whale", f.whale.Hex())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription: %w", err)
		case lg := <-logs:
			ev, ok := decodeOrderFilled(lg)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// decodeOrderFilled convierte un log OrderFilled en un evento del dominio.
// Descarta fills share-por-share (ninguno de los asset ids es cero) y
// cualquier cosa que no pase Validate.
func decodeOrderFilled(lg types.Log) (domain.WhaleTradeEvent, bool) {
	vals, err := orderFilledArgs.Unpack(lg.Data)
	if err != nil || len(vals) < 4 {
		slog.Debug("undecodable OrderFilled log", "tx", lg.TxHash.Hex(), "err", err)
		return domain.WhaleTradeEvent{}, false
	}

	makerAssetID := vals[0].(*big.Int)
	takerAssetID := vals[1].(*big.Int)
	makerAmount := vals[2].(*big.Int)
	takerAmount := vals[3].(*big.Int)

	var (
		side    domain.Side
		tokenID *big.Int
		shares  float64
		usd     float64
	)
	switch {
	case makerAssetID.Sign() == 0 && takerAssetID.Sign() != 0:
		side = domain.SideBuy
		tokenID = takerAssetID
		usd = microToFloat(makerAmount)
		shares = microToFloat(takerAmount)
	case takerAssetID.Sign() == 0 && makerAssetID.Sign() != 0:
		side = domain.SideSell
		tokenID = makerAssetID
		shares = microToFloat(makerAmount)
		usd = microToFloat(takerAmount)
	default:
		return domain.WhaleTradeEvent{}, false
	}

	if shares <= 0 {
		return domain.WhaleTradeEvent{}, false
	}

	ev := domain.WhaleTradeEvent{
		TokenID:    tokenID.String(),
		Side:       side,
		Shares:     shares,
		Price:      usd / shares,
		USDValue:   usd,
		TxHash:     lg.TxHash.Hex(),
		Block:      lg.BlockNumber,
		ObservedAt: time.Now().UTC(),
	}
	if err := ev.Validate(); err != nil {
		slog.Debug("discarding whale fill", "tx", ev.TxHash, "err", err)
		return domain.WhaleTradeEvent{}, false
	}
	return ev, true
}

func microToFloat(n *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(n), big.NewFloat(1e6)).Float64()
	return f
}
