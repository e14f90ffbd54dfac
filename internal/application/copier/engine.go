package copier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

const (
	defaultWorkers   = 8
	defaultQueueSize = 1024

	recentSummaryRows = 15
)

// Config holds configuration for the copy engine.
type Config struct {
	Enabled        bool // false = dry run: la cadena entera se salta con SKIPPED_DISABLED
	Workers        int
	QueueSize      int
	SnapshotDelay  time.Duration
	LiveExpiry     time.Duration
	RestingExpiry  time.Duration
	RetryDelay     time.Duration // espera entre reintentos FAK de trades pequeños
	ChaseIncrement float64       // subida de precio en el primer reenvío (tiers con chase)
}

// Engine consume los fills de la ballena y ejecuta el pipeline de copia:
// dedup → metadata → guard → sizing → pricing → cadena de envíos.
type Engine struct {
	feed     ports.WhaleFeed
	executor ports.OrderExecutor
	books    ports.BookProvider
	metadata ports.MarketMetadata
	store    ports.CopyStorage
	notifier ports.Notifier
	guard    *domain.RiskGuard
	sizer    *domain.Sizer
	cfg      Config

	queue chan domain.WhaleTradeEvent
	wg    sync.WaitGroup

	seenMu sync.Mutex
	seen   map[string]struct{}

	// snapshots en vuelo, para no perderlos en el shutdown
	snapWG sync.WaitGroup
}

// New crea el engine. Los puertos son obligatorios salvo notifier, que puede
// ser nil para correr en silencio.
func New(
	feed ports.WhaleFeed,
	executor ports.OrderExecutor,
	books ports.BookProvider,
	metadata ports.MarketMetadata,
	store ports.CopyStorage,
	notifier ports.Notifier,
	guard *domain.RiskGuard,
	sizer *domain.Sizer,
	cfg Config,
) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 50 * time.Millisecond
	}
	if cfg.ChaseIncrement <= 0 {
		cfg.ChaseIncrement = 0.01
	}

	return &Engine{
		feed:     feed,
		executor: executor,
		books:    books,
		metadata: metadata,
		store:    store,
		notifier: notifier,
		guard:    guard,
		sizer:    sizer,
		cfg:      cfg,
		queue:    make(chan domain.WhaleTradeEvent, cfg.QueueSize),
		seen:     make(map[string]struct{}),
	}
}

// Run arranca la ingesta y procesa eventos hasta que el contexto se cancele.
// Al salir, drena los workers, espera los snapshots en vuelo e imprime el
// resumen de sesión.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.warmDedup(ctx); err != nil {
		slog.Warn("dedup warm-up failed, starting cold", "err", err)
	}

	events, err := e.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("copier: subscribe: %w", err)
	}

	for i := 0; i < e.cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}

	slog.Info("copier engine started",
		"workers", e.cfg.Workers,
		"queue", e.cfg.QueueSize,
		"trading_enabled", e.cfg.Enabled,
	)

	for ev := range events {
		e.dispatch(ctx, ev)
	}

	// el feed cerró: o se canceló el contexto o murió sin reconexión posible
	close(e.queue)
	e.wg.Wait()
	e.snapWG.Wait()
	e.printSummary()

	return ctx.Err()
}

// dispatch deduplica y encola sin bloquear. Si la cola está llena el evento
// se descarta y queda registrado: perder un trade es recuperable, bloquear
// la ingesta no.
func (e *Engine) dispatch(ctx context.Context, ev domain.WhaleTradeEvent) {
	key := ev.DedupKey()

	e.seenMu.Lock()
	if _, dup := e.seen[key]; dup {
		e.seenMu.Unlock()
		slog.Debug("duplicate fill discarded", "key", key)
		return
	}
	e.seen[key] = struct{}{}
	e.seenMu.Unlock()

	select {
	case e.queue <- ev:
	default:
		slog.Warn("queue full, dropping whale fill",
			"tx", ev.TxHash,
			"shares", ev.Shares,
		)
		e.closeCopy(ctx, newCopy(ev), domain.StatusQueueErr)
	}
}

// worker procesa eventos de la cola hasta que se cierre.
func (e *Engine) worker(ctx context.Context, id int) {
	defer e.wg.Done()
	for ev := range e.queue {
		e.process(ctx, ev)
	}
	slog.Debug("worker drained", "worker", id)
}

// warmDedup precarga el set de idempotencia desde el storage para que un
// reinicio no re-copie fills ya procesados.
func (e *Engine) warmDedup(ctx context.Context) error {
	keys, err := e.store.SeenKeys(ctx)
	if err != nil {
		return err
	}
	e.seenMu.Lock()
	for _, k := range keys {
		e.seen[k] = struct{}{}
	}
	e.seenMu.Unlock()
	slog.Info("dedup set warmed", "keys", len(keys))
	return nil
}

// newCopy crea el registro agregado de una copia recién observada.
func newCopy(ev domain.WhaleTradeEvent) domain.CopyOrder {
	return domain.CopyOrder{
		ID:          uuid.NewString(),
		EventKey:    ev.DedupKey(),
		TokenID:     ev.TokenID,
		Side:        ev.Side,
		WhaleShares: ev.Shares,
		WhalePrice:  ev.Price,
		CreatedAt:   time.Now().UTC(),
	}
}

// closeCopy fija el estado terminal, persiste y notifica.
func (e *Engine) closeCopy(ctx context.Context, cp domain.CopyOrder, status string) {
	cp.Status = status
	cp.ClosedAt = time.Now().UTC()

	if err := e.store.SaveCopy(ctx, cp); err != nil {
		slog.Error("failed to persist copy", "key", cp.EventKey, "err", err)
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyCopy(ctx, cp); err != nil {
			slog.Debug("notify failed", "err", err)
		}
	}
}

// printSummary imprime los contadores y las últimas copias de la sesión.
func (e *Engine) printSummary() {
	if e.notifier == nil {
		return
	}

	// contexto propio: el de Run ya está cancelado en el shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := e.store.Stats(ctx)
	if err != nil {
		slog.Warn("summary stats unavailable", "err", err)
		return
	}
	recent, err := e.store.RecentCopies(ctx, recentSummaryRows)
	if err != nil {
		slog.Warn("summary recent copies unavailable", "err", err)
	}
	if err := e.notifier.Summary(ctx, stats, recent); err != nil {
		slog.Debug("summary print failed", "err", err)
	}
}
