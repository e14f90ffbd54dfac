package copier

// sim.go — executor simulado para correr el bot sin tocar el CLOB.
// Rellena los FAK al completo, deja los GTD descansando y descuenta
// nocional de un balance ficticio, para que la cadena y el storage se
// ejerciten igual que en real.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

const defaultSimBalance = 10_000.0

// Simulator implementa ports.OrderExecutor sin red. Es seguro para uso
// concurrente desde los workers del engine.
type Simulator struct {
	mu      sync.Mutex
	balance float64
	orders  int
}

func NewSimulator(balance float64) *Simulator {
	if balance <= 0 {
		balance = defaultSimBalance
	}
	return &Simulator{balance: balance}
}

// SubmitOrder simula el matching: un BUY consume balance y se rellena al
// completo si es FAK; un GTD queda resting sin fill inmediato, como una
// orden pasiva real recién colocada.
func (s *Simulator) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Side == domain.SideBuy && req.Type == domain.OrderTypeFAK {
		cost := req.Notional()
		if cost > s.balance {
			return domain.OrderResult{}, fmt.Errorf("sim: insufficient balance: need %.2f, have %.2f", cost, s.balance)
		}
		s.balance -= cost
	}

	s.orders++
	res := domain.OrderResult{OrderID: "sim-" + uuid.NewString()}

	switch req.Type {
	case domain.OrderTypeFAK:
		res.FilledSize = req.Size
	default:
		res.Resting = true
	}

	slog.Debug("simulated order",
		"side", req.Side,
		"type", req.Type,
		"price", req.Price,
		"size", req.Size,
		"filled", res.FilledSize,
		"resting", res.Resting,
		"balance", s.balance,
	)
	return res, nil
}

func (s *Simulator) GetBalance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}
