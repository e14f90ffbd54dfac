package copier

// fakes_test.go — dobles de los puertos para los tests del engine y de la
// cadena de reenvíos. El executor se guioniza por llamada; el resto graba.

import (
	"context"
	"errors"
	"sync"

	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

type submitStep struct {
	res domain.OrderResult
	err error
}

// scriptedExecutor devuelve los pasos del guion en orden. Si el guion se
// agota, las llamadas extra fallan el test a través del error devuelto.
type scriptedExecutor struct {
	mu     sync.Mutex
	script []submitStep
	calls  []domain.OrderRequest
}

func (s *scriptedExecutor) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.script) == 0 {
		return domain.OrderResult{}, errors.New("scripted executor: unexpected call")
	}
	step := s.script[0]
	s.script = s.script[1:]
	return step.res, step.err
}

func (s *scriptedExecutor) GetBalance(ctx context.Context) (float64, error) {
	return 1000, nil
}

func (s *scriptedExecutor) requests() []domain.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrderRequest, len(s.calls))
	copy(out, s.calls)
	return out
}

type recordingStore struct {
	mu       sync.Mutex
	seen     []string
	copies   []domain.CopyOrder
	attempts []domain.OrderAttempt
}

func (r *recordingStore) SeenKeys(ctx context.Context) ([]string, error) { return r.seen, nil }

func (r *recordingStore) SaveCopy(ctx context.Context, cp domain.CopyOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copies = append(r.copies, cp)
	return nil
}

func (r *recordingStore) SaveAttempt(ctx context.Context, copyID string, attempt domain.OrderAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *recordingStore) RecentCopies(ctx context.Context, limit int) ([]domain.CopyOrder, error) {
	return nil, nil
}

func (r *recordingStore) Stats(ctx context.Context) (domain.CopyStats, error) {
	return domain.CopyStats{}, nil
}

func (r *recordingStore) Close() error { return nil }

func (r *recordingStore) savedCopies() []domain.CopyOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CopyOrder, len(r.copies))
	copy(out, r.copies)
	return out
}

func (r *recordingStore) lastCopy() domain.CopyOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.copies) == 0 {
		return domain.CopyOrder{}
	}
	return r.copies[len(r.copies)-1]
}

type stubBooks struct {
	book domain.OrderBook
	err  error
}

func (s *stubBooks) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	return s.book, s.err
}

type stubMetadata struct {
	info ports.MarketInfo
	err  error
}

func (s *stubMetadata) Lookup(ctx context.Context, tokenID string) (ports.MarketInfo, error) {
	return s.info, s.err
}

type countingNotifier struct {
	mu      sync.Mutex
	copies  int
	summary int
}

func (n *countingNotifier) NotifyCopy(ctx context.Context, cp domain.CopyOrder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.copies++
	return nil
}

func (n *countingNotifier) Summary(ctx context.Context, stats domain.CopyStats, recent []domain.CopyOrder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summary++
	return nil
}

type channelFeed struct {
	ch chan domain.WhaleTradeEvent
}

func (f *channelFeed) Subscribe(ctx context.Context) (<-chan domain.WhaleTradeEvent, error) {
	return f.ch, nil
}
