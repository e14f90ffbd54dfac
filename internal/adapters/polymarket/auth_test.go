package polymarket

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

// clave de test conocida, nunca usada en ninguna red
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testAuthClient(t *testing.T, funder string) *AuthClient {
	t.Helper()
	ac, err := NewAuthClient("http://clob", "http://gamma", "http://data", testPrivateKey, funder)
	require.NoError(t, err)
	return ac
}

func TestDetectPricePrecision(t *testing.T) {
	assert.Equal(t, int64(100), detectPricePrecision(0.60))
	assert.Equal(t, int64(100), detectPricePrecision(0.99))
	assert.Equal(t, int64(1000), detectPricePrecision(0.673))
	assert.Equal(t, int64(10000), detectPricePrecision(0.5525))
}

func TestBuildSignedOrder_BuyAmounts(t *testing.T) {
	ac := testAuthClient(t, "")

	signed, err := ac.buildSignedOrder(domain.OrderRequest{
		TokenID: "123456",
		Side:    domain.SideBuy,
		Price:   0.52,
		Size:    60,
		Type:    domain.OrderTypeFAK,
	})
	require.NoError(t, err)

	// BUY: maker entrega USDC, taker son las shares.
	// 60 shares × 0.52 = 31.20 USDC = 31_200_000 micro
	assert.Equal(t, int64(31_200_000), signed.Order.MakerAmount.Int64())
	assert.Equal(t, int64(60_000_000), signed.Order.TakerAmount.Int64())
	assert.Equal(t, "0", signed.Order.Expiration.String())
}

func TestBuildSignedOrder_SellSwapsAmounts(t *testing.T) {
	ac := testAuthClient(t, "")

	signed, err := ac.buildSignedOrder(domain.OrderRequest{
		TokenID: "123456",
		Side:    domain.SideSell,
		Price:   0.52,
		Size:    60,
		Type:    domain.OrderTypeGTD,
		Expiration: time.Unix(1_800_000_000, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(60_000_000), signed.Order.MakerAmount.Int64())
	assert.Equal(t, int64(31_200_000), signed.Order.TakerAmount.Int64())
	assert.Equal(t, big.NewInt(1_800_000_000).String(), signed.Order.Expiration.String())
}

// la verificación del CLOB exige usdc == price × shares exacto en micro
// unidades; el redondeo a floor de centavos garantiza la igualdad
func TestBuildSignedOrder_ExactIntegerMath(t *testing.T) {
	ac := testAuthClient(t, "")

	signed, err := ac.buildSignedOrder(domain.OrderRequest{
		TokenID: "123456",
		Side:    domain.SideBuy,
		Price:   0.673,
		Size:    29.97,
		Type:    domain.OrderTypeFAK,
	})
	require.NoError(t, err)

	// 29.97 → 2997 centavos de share; 2997 × 673 × 10 = 20_169_810
	assert.Equal(t, int64(20_169_810), signed.Order.MakerAmount.Int64())
	assert.Equal(t, int64(29_970_000), signed.Order.TakerAmount.Int64())
}

func TestBuildSignedOrder_FunderBecomesMaker(t *testing.T) {
	funder := "0x2222222222222222222222222222222222222222"
	ac := testAuthClient(t, funder)

	signed, err := ac.buildSignedOrder(domain.OrderRequest{
		TokenID: "123456",
		Side:    domain.SideBuy,
		Price:   0.50,
		Size:    10,
		Type:    domain.OrderTypeFAK,
	})
	require.NoError(t, err)

	assert.Equal(t, funder, signed.Order.Maker.Hex())
	assert.NotEqual(t, signed.Order.Signer.Hex(), signed.Order.Maker.Hex(),
		"el proxy wallet firma con la EOA pero el maker es el funder")
}

func TestBuildSignedOrder_RejectsZeroSize(t *testing.T) {
	ac := testAuthClient(t, "")

	_, err := ac.buildSignedOrder(domain.OrderRequest{
		TokenID: "123456",
		Side:    domain.SideBuy,
		Price:   0.50,
		Size:    0.005,
		Type:    domain.OrderTypeFAK,
	})
	assert.Error(t, err, "menos de un centavo de share no construye orden")
}

func TestNewAuthClient_InvalidFunder(t *testing.T) {
	_, err := NewAuthClient("http://clob", "http://gamma", "http://data", testPrivateKey, "not-hex")
	assert.Error(t, err)
}
