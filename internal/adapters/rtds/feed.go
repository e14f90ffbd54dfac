package rtds

// feed.go — Whale fill ingestion vía el Real-Time Data Service de Polymarket.
//
// Alternativa al feed on-chain para quien no tiene un RPC WebSocket de
// Polygon: el canal "activity" de RTDS publica los trades de un usuario con
// transactionHash incluido, así que el dedup del pipeline funciona igual.
// Llega unos cientos de milisegundos más tarde que el log on-chain.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/whalebot/internal/domain"
)

const (
	reconnectMin = 1 * time.Second
	reconnectMax = 60 * time.Second

	heartbeatInterval = 60 * time.Second
	readDeadline      = 90 * time.Second

	feedBuffer = 256
)

// subscribeMsg es el payload de suscripción al canal activity.
type subscribeMsg struct {
	Action        string         `json:"action"`
	Subscriptions []subscription `json:"subscriptions"`
}

type subscription struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Filters string `json:"filters"`
}

// activityMsg es un mensaje entrante del canal activity.
type activityMsg struct {
	Topic   string       `json:"topic"`
	Type    string       `json:"type"`
	Payload tradePayload `json:"payload"`
}

type tradePayload struct {
	Asset           string      `json:"asset"`
	Side            string      `json:"side"`
	Size            json.Number `json:"size"`
	Price           json.Number `json:"price"`
	TransactionHash string      `json:"transactionHash"`
	Timestamp       json.Number `json:"timestamp"`
	ProxyWallet     string      `json:"proxyWallet"`
}

// Feed implements ports.WhaleFeed over the RTDS websocket.
type Feed struct {
	wsURL string
	whale string
}

// NewFeed creates an RTDS feed for the given whale address.
func NewFeed(wsURL, whaleAddress string) *Feed {
	return &Feed{wsURL: wsURL, whale: strings.ToLower(whaleAddress)}
}

// Subscribe arranca la ingesta y devuelve el canal de eventos. Reconecta
// con backoff exponencial; solo la cancelación del contexto lo detiene.
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

		connectedAt := time.Now()
		err := f.streamOnce(ctx, out)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("rtds feed disconnected, reconnecting", "err", err, "backoff", backoff)
		}

		// una conexión que duró un rato resetea el backoff
		if time.Since(connectedAt) > 5*time.Minute {
			backoff = reconnectMin
		}

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

// streamOnce abre una conexión, se suscribe y bombea mensajes hasta fallo.
func (f *Feed) streamOnce(ctx context.Context, out chan<- domain.WhaleTradeEvent) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	filters, _ := json.Marshal(map[string]string{"user": f.whale})
	sub := subscribeMsg{
		Action: "subscribe",
		Subscriptions: []subscription{{
			Topic:   "activity",
			Type:    "trades",
			Filters: string(filters),
		}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	slog.Info("rtds feed connected", "whale", f.whale)

	// heartbeat para que los intermediarios no corten la conexión
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		ev, ok := f.parseMessage(raw)
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

// parseMessage filtra y convierte un mensaje del canal activity.
func (f *Feed) parseMessage(raw []byte) (domain.WhaleTradeEvent, bool) {
	var msg activityMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.WhaleTradeEvent{}, false
	}
	if msg.Topic != "activity" || msg.Type != "trades" {
		return domain.WhaleTradeEvent{}, false
	}
	p := msg.Payload
	if p.ProxyWallet != "" && !strings.EqualFold(p.ProxyWallet, f.whale) {
		return domain.WhaleTradeEvent{}, false
	}

	price, _ := p.Price.Float64()
	size, _ := p.Size.Float64()

	observed := time.Now().UTC()
	if ts, err := p.Timestamp.Int64(); err == nil && ts > 0 {
		if ts > 1e12 {
			observed = time.UnixMilli(ts).UTC()
		} else {
			observed = time.Unix(ts, 0).UTC()
		}
	}

	ev := domain.WhaleTradeEvent{
		TokenID:    p.Asset,
		Side:       domain.Side(strings.ToUpper(p.Side)),
		Shares:     size,
		Price:      price,
		USDValue:   price * size,
		TxHash:     p.TransactionHash,
		ObservedAt: observed,
	}
	if err := ev.Validate(); err != nil {
		slog.Debug("discarding rtds trade", "tx", ev.TxHash, "err", err)
		return domain.WhaleTradeEvent{}, false
	}
	return ev, true
}
