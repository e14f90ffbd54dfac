package polymarket

// trading.go — Real order execution via Polymarket CLOB API.
//
// Implements ports.OrderExecutor using AuthClient for L1/L2 auth.
// Orders go out as FAK (fill-and-kill) or GTD (resting with expiry).

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// clobOrderRequest is the JSON body sent to POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg     string `json:"errorMsg"`
	OrderID      string `json:"orderID"`
	TakingAmount string `json:"takingAmount"`
	MakingAmount string `json:"makingAmount"`
	Status       string `json:"status"`
	Success      bool   `json:"success"`
}

type clobBalanceResponse struct {
	Balance string `json:"balance"`
}

const usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

var balanceOfABI abi.ABI

func init() {
	var err error
	balanceOfABI, err = abi.JSON(strings.NewReader(`[{
		"name":"balanceOf","type":"function",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]
	}]`))
	if err != nil {
		panic("balanceOf abi: " + err.Error())
	}
}

// TradingClient implements ports.OrderExecutor.
type TradingClient struct {
	auth      *AuthClient
	rpcClient *ethclient.Client
}

// NewTradingClient creates a TradingClient. rpcClient may be nil; then
// GetBalance falls back to the CLOB balance-allowance endpoint.
func NewTradingClient(auth *AuthClient, rpcClient *ethclient.Client) *TradingClient {
	return &TradingClient{auth: auth, rpcClient: rpcClient}
}

// Address returns the signing wallet address.
func (tc *TradingClient) Address() string {
	return tc.auth.Address()
}

// SubmitOrder signs and submits a single limit order to the CLOB.
// FilledSize in the result is in shares, whatever the side. Rejections that
// the resubmission chain can retry come back wrapped as domain.Retryable.
func (tc *TradingClient) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.OrderResult{}, fmt.Errorf("submit order: creds: %w", err)
	}

	signed, err := tc.auth.buildSignedOrder(req)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("submit order: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       req.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          string(req.Side),
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.creds.APIKey,
		OrderType: string(req.Type),
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("submit order: post: %w", err)
	}

	if !resp.Success || resp.ErrorMsg != "" {
		err := fmt.Errorf("submit order: clob error: %s", resp.ErrorMsg)
		if retryableCLOBError(resp.ErrorMsg) {
			return domain.OrderResult{}, domain.Retryable(err)
		}
		return domain.OrderResult{}, err
	}

	return domain.OrderResult{
		OrderID:    resp.OrderID,
		FilledSize: filledShares(req.Side, resp),
		Resting:    strings.EqualFold(resp.Status, "live"),
	}, nil
}

// CancelAll cancels all open orders for this wallet. Called on shutdown so
// resting GTD orders don't outlive the process.
func (tc *TradingClient) CancelAll(ctx context.Context) error {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return fmt.Errorf("cancel all: creds: %w", err)
	}

	if err := tc.auth.doL2(ctx, http.MethodDelete, "/orders", nil, nil); err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	return nil
}

// GetBalance returns the available USDC.e balance of the trading wallet.
// Prefers the on-chain read when an RPC client is available.
func (tc *TradingClient) GetBalance(ctx context.Context) (float64, error) {
	if tc.rpcClient == nil {
		return tc.clobBalance(ctx)
	}

	holder := tc.auth.address
	if tc.auth.funder != (common.Address{}) {
		holder = tc.auth.funder
	}

	callData, err := balanceOfABI.Pack("balanceOf", holder)
	if err != nil {
		return 0, fmt.Errorf("get balance: pack: %w", err)
	}

	token := common.HexToAddress(usdcEAddress)
	result, err := tc.rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("get balance: rpc call: %w", err)
	}

	vals, err := balanceOfABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("get balance: unpack: %w", err)
	}

	raw := vals[0].(*big.Int)
	bal, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), new(big.Float).SetFloat64(1e6)).Float64()
	return bal, nil
}

// clobBalance queries the CLOB balance-allowance endpoint.
func (tc *TradingClient) clobBalance(ctx context.Context) (float64, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return 0, fmt.Errorf("get balance: creds: %w", err)
	}

	var resp clobBalanceResponse
	path := "/balance-allowance?asset_type=COLLATERAL"
	if err := tc.auth.doL2(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return parseUSDC(resp.Balance), nil
}

// filledShares extracts the executed share count from an order response.
// For a BUY the maker receives shares (taking side); for a SELL it gives
// them (making side). Both come back in micro units.
func filledShares(side domain.Side, resp clobOrderResponse) float64 {
	if side == domain.SideBuy {
		return parseUSDC(resp.TakingAmount)
	}
	return parseUSDC(resp.MakingAmount)
}

// retryableCLOBError reconoce rechazos transitorios: un FAK matado por falta
// de contrapartida o un matching engine saturado. Todo lo demás (balance,
// allowance, orden inválida) aborta la cadena.
func retryableCLOBError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"fak", "fok", "killed", "delayed", "timeout", "try again"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// parseUSDC converts a micro-unit string (e.g., "1000000") to a float.
func parseUSDC(s string) float64 {
	if s == "" {
		return 0
	}
	n := new(big.Int)
	n.SetString(s, 10)
	f, _ := new(big.Float).SetInt(n).Float64()
	return f / 1_000_000
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	var f float64
	fmt.Sscanf(s, "%f", &f)
	return f
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// Try parsing as int64 Unix timestamp
	var ts int64
	if _, err := fmt.Sscanf(s, "%d", &ts); err == nil && ts > 0 {
		if ts > 1e12 {
			return time.UnixMilli(ts).UTC()
		}
		return time.Unix(ts, 0).UTC()
	}
	// ISO 8601
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
