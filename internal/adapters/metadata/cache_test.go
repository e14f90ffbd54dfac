package metadata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whalebot/internal/ports"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	info  ports.MarketInfo
	err   error
}

func (s *countingSource) FetchMarketInfo(ctx context.Context, tokenID string) (ports.MarketInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.info, s.err
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCache_FirstMissHitsSource(t *testing.T) {
	src := &countingSource{info: ports.MarketInfo{Slug: "some-market", Live: true}}
	c := NewCache(src)

	info, err := c.Lookup(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "some-market", info.Slug)
	assert.True(t, info.Live)
	assert.Equal(t, 1, src.callCount())
	assert.Equal(t, 1, c.Len())
}

func TestCache_FreshEntrySkipsSource(t *testing.T) {
	src := &countingSource{info: ports.MarketInfo{Slug: "some-market"}}
	c := NewCache(src)

	_, err := c.Lookup(context.Background(), "tok")
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, 1, src.callCount(), "la segunda lectura debe salir del cache")
}

func TestCache_ServesStaleOnRefreshError(t *testing.T) {
	src := &countingSource{info: ports.MarketInfo{Slug: "some-market"}}
	c := NewCache(src)
	c.ttl = 0 // toda entrada nace caducada

	_, err := c.Lookup(context.Background(), "tok")
	require.NoError(t, err)

	src.mu.Lock()
	src.err = errors.New("gamma 500")
	src.mu.Unlock()

	info, err := c.Lookup(context.Background(), "tok")
	require.NoError(t, err, "con entrada vieja disponible, el error no debe propagarse")
	assert.Equal(t, "some-market", info.Slug)
}

func TestCache_ErrorWithoutEntryPropagates(t *testing.T) {
	src := &countingSource{err: errors.New("gamma 500")}
	c := NewCache(src)

	_, err := c.Lookup(context.Background(), "tok")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCache_RefreshAllUpdatesEntries(t *testing.T) {
	src := &countingSource{info: ports.MarketInfo{Slug: "v1"}}
	c := NewCache(src)

	_, err := c.Lookup(context.Background(), "tok")
	require.NoError(t, err)

	src.mu.Lock()
	src.info = ports.MarketInfo{Slug: "v1", Live: true}
	src.mu.Unlock()

	c.refreshAll(context.Background())

	info, err := c.Lookup(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, info.Live, "el refresher debe traer el estado live nuevo")
	assert.Equal(t, 2, src.callCount())
}
