package copier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

func testEngine(exec ports.OrderExecutor, store *recordingStore, books ports.BookProvider, cfg Config) *Engine {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return New(
		&channelFeed{ch: make(chan domain.WhaleTradeEvent)},
		exec,
		books,
		&stubMetadata{info: ports.MarketInfo{Slug: "some-market"}},
		store,
		&countingNotifier{},
		domain.NewRiskGuard(domain.DefaultGuardConfig()),
		domain.NewSizer(domain.DefaultSizerConfig(), nil),
		cfg,
	)
}

func TestDispatch_DedupDropsRepeatedEvents(t *testing.T) {
	store := &recordingStore{}
	e := testEngine(&scriptedExecutor{}, store, &stubBooks{}, Config{Enabled: true})

	ev := buyEvent(3000)
	e.dispatch(context.Background(), ev)
	e.dispatch(context.Background(), ev)

	assert.Equal(t, 1, len(e.queue), "el duplicado no debe encolarse")
	assert.Empty(t, store.savedCopies())
}

func TestDispatch_SameTxDifferentSideIsNotDuplicate(t *testing.T) {
	store := &recordingStore{}
	e := testEngine(&scriptedExecutor{}, store, &stubBooks{}, Config{Enabled: true})

	buy := buyEvent(3000)
	sell := buy
	sell.Side = domain.SideSell

	e.dispatch(context.Background(), buy)
	e.dispatch(context.Background(), sell)

	assert.Equal(t, 2, len(e.queue))
}

func TestDispatch_FullQueueClosesWithQueueErr(t *testing.T) {
	store := &recordingStore{}
	e := testEngine(&scriptedExecutor{}, store, &stubBooks{}, Config{Enabled: true, QueueSize: 1})

	first := buyEvent(3000)
	second := buyEvent(3000)
	second.TxHash = "0xdef"

	e.dispatch(context.Background(), first)
	e.dispatch(context.Background(), second)

	copies := store.savedCopies()
	require.Len(t, copies, 1, "solo el evento descartado genera registro inmediato")
	assert.Equal(t, domain.StatusQueueErr, copies[0].Status)
	assert.Equal(t, second.DedupKey(), copies[0].EventKey)
}

func TestWarmDedup_SeedsSeenKeys(t *testing.T) {
	ev := buyEvent(3000)
	store := &recordingStore{seen: []string{ev.DedupKey()}}
	e := testEngine(&scriptedExecutor{}, store, &stubBooks{}, Config{Enabled: true})

	require.NoError(t, e.warmDedup(context.Background()))
	e.dispatch(context.Background(), ev)

	assert.Zero(t, len(e.queue), "un fill ya persistido no se reprocesa tras reiniciar")
}

// --- process ---

func TestProcess_DisabledSkipsBeforeAnything(t *testing.T) {
	exec := &scriptedExecutor{}
	store := &recordingStore{}
	e := testEngine(exec, store, &stubBooks{}, Config{Enabled: false})

	e.process(context.Background(), buyEvent(3000))

	assert.Equal(t, domain.StatusSkippedDisabled, store.lastCopy().Status)
	assert.Empty(t, exec.requests())
}

func TestProcess_TinyWhaleTradeSkipped(t *testing.T) {
	exec := &scriptedExecutor{}
	store := &recordingStore{}
	e := testEngine(exec, store, &stubBooks{}, Config{Enabled: true})

	e.process(context.Background(), buyEvent(0.5))

	assert.Equal(t, domain.StatusSkippedSmall, store.lastCopy().Status)
	assert.Empty(t, exec.requests())
}

func TestProcess_ThinBookBlocksSecondLargeTrade(t *testing.T) {
	exec := &scriptedExecutor{}
	store := &recordingStore{}
	// book vacío: la profundidad más allá del precio es $0
	e := testEngine(exec, store, &stubBooks{book: domain.OrderBook{TokenID: "tok"}}, Config{Enabled: true})

	first := buyEvent(2000)
	second := buyEvent(2000)
	second.TxHash = "0xdef"

	// el primero pasa (guioniza un fill completo para que no falle el envío)
	exec.mu.Lock()
	exec.script = []submitStep{{res: domain.OrderResult{OrderID: "o1", FilledSize: 40}}}
	exec.mu.Unlock()
	e.process(context.Background(), first)

	e.process(context.Background(), second)

	last := store.lastCopy()
	assert.Equal(t, domain.StatusRiskBlocked("trap"), last.Status)
	assert.Len(t, exec.requests(), 1, "el trade bloqueado nunca llega al executor")
}

func TestProcess_SuccessfulCopyRecordsSlugAndFill(t *testing.T) {
	exec := &scriptedExecutor{script: []submitStep{
		{res: domain.OrderResult{OrderID: "o1", FilledSize: 60}},
	}}
	store := &recordingStore{}
	e := testEngine(exec, store, &stubBooks{}, Config{Enabled: true})

	e.process(context.Background(), buyEvent(3000))

	cp := store.lastCopy()
	assert.Equal(t, "some-market", cp.Slug)
	assert.Equal(t, "SUCCESS:60.00/60.00", cp.Status)
	assert.Equal(t, 60.0, cp.FilledSize)
	assert.Equal(t, 60.0, cp.CopySize)
	assert.Equal(t, 0.51, cp.LimitPrice, "tier 2000 suma un centavo de buffer")
	assert.False(t, cp.ClosedAt.IsZero())
}

func TestProcess_TopTierFullFill(t *testing.T) {
	exec := &scriptedExecutor{script: []submitStep{
		{res: domain.OrderResult{OrderID: "o1", FilledSize: 250}},
	}}
	store := &recordingStore{}
	e := testEngine(exec, store, &stubBooks{}, Config{Enabled: true})

	// 10000 × 0.02 × 1.25 = 250 shares; límite 0.50 + 0.01 de buffer = 0.51
	e.process(context.Background(), buyEvent(10000))

	cp := store.lastCopy()
	assert.Equal(t, "SUCCESS:250.00/250.00", cp.Status)
	assert.Equal(t, 250.0, cp.CopySize)
	assert.Equal(t, 250.0, cp.FilledSize)
	assert.Equal(t, 0.51, cp.LimitPrice)
	assert.Equal(t, 1, cp.Attempts)

	reqs := exec.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.OrderTypeFAK, reqs[0].Type)
	assert.Equal(t, 250.0, reqs[0].Size)
	assert.Equal(t, 0.51, reqs[0].Price)
}

// --- Run ---

func TestRun_DrainsFeedAndPrintsSummary(t *testing.T) {
	exec := &scriptedExecutor{script: []submitStep{
		{res: domain.OrderResult{OrderID: "o1", FilledSize: 60}},
	}}
	store := &recordingStore{}
	notifier := &countingNotifier{}
	feed := &channelFeed{ch: make(chan domain.WhaleTradeEvent, 1)}

	e := New(
		feed, exec, &stubBooks{}, &stubMetadata{}, store, notifier,
		domain.NewRiskGuard(domain.DefaultGuardConfig()),
		domain.NewSizer(domain.DefaultSizerConfig(), nil),
		Config{Enabled: true, Workers: 2, RetryDelay: time.Millisecond},
	)

	feed.ch <- buyEvent(3000)
	close(feed.ch)

	err := e.Run(context.Background())
	require.NoError(t, err)

	copies := store.savedCopies()
	require.Len(t, copies, 1)
	assert.True(t, domain.IsSuccess(copies[0].Status))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, 1, notifier.copies)
	assert.Equal(t, 1, notifier.summary)
}
