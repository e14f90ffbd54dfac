package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/whalebot/config"
	"github.com/alejandrodnm/whalebot/internal/adapters/metadata"
	"github.com/alejandrodnm/whalebot/internal/adapters/notify"
	"github.com/alejandrodnm/whalebot/internal/adapters/onchain"
	"github.com/alejandrodnm/whalebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/whalebot/internal/adapters/rtds"
	"github.com/alejandrodnm/whalebot/internal/adapters/storage"
	"github.com/alejandrodnm/whalebot/internal/application/copier"
	"github.com/alejandrodnm/whalebot/internal/domain"
	"github.com/alejandrodnm/whalebot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full summary table (default: compact)")
	mock := flag.Bool("mock", false, "force the simulated executor (overrides config)")
	replay := flag.Int("replay", 0, "replay the whale's last N fills and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *mock {
		cfg.Execution.Mock = true
	}
	setupLogger(cfg.Log)

	slog.Info("whalebot starting",
		"config", *configPath,
		"whale", cfg.Whale.Address,
		"source", cfg.Whale.Source,
		"trading_enabled", cfg.Execution.Enabled,
		"mock", cfg.Execution.Mock,
		"replay", *replay,
	)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cache := metadata.NewCache(client)
	cache.StartRefresh(ctx, 0)

	executor, trading, err := buildExecutor(ctx, cfg)
	if err != nil {
		slog.Error("failed to build executor", "err", err)
		os.Exit(1)
	}

	if balance, err := executor.GetBalance(ctx); err != nil {
		slog.Warn("balance check failed", "err", err)
	} else {
		slog.Info("wallet balance", "usdc", balance)
		if cfg.Execution.Enabled && balance < cfg.Execution.MinBalanceUSD {
			slog.Warn("balance below configured floor",
				"usdc", balance,
				"floor", cfg.Execution.MinBalanceUSD,
			)
		}
	}

	feed, err := buildFeed(cfg, client, *replay)
	if err != nil {
		slog.Error("failed to build whale feed", "err", err)
		os.Exit(1)
	}

	guard := domain.NewRiskGuard(domain.GuardConfig{
		LargeTradeShares:   cfg.Guard.LargeTradeShares,
		SequenceWindow:     cfg.GuardWindow(),
		ConsecutiveTrigger: cfg.Guard.TriggerCount,
		MinDepthUSD:        cfg.Guard.MinDepthUSD,
		TripDuration:       cfg.GuardTrip(),
	})

	sizerCfg := domain.DefaultSizerConfig()
	sizerCfg.ScalingRatio = cfg.Sizing.CopyRatio
	sizerCfg.MinCashValue = cfg.Sizing.MinCashValue
	sizerCfg.MinShareCount = cfg.Sizing.MinShareCount
	sizerCfg.MinCopyShares = cfg.Sizing.MinCopyShares
	sizerCfg.Probabilistic = cfg.Sizing.Probabilistic
	sizer := domain.NewSizer(sizerCfg, nil)

	engine := copier.New(feed, executor, client, cache, store, notifier, guard, sizer, copier.Config{
		Enabled:        cfg.Execution.Enabled,
		Workers:        cfg.Execution.Workers,
		QueueSize:      cfg.Execution.QueueSize,
		SnapshotDelay:  cfg.SnapshotDelay(),
		LiveExpiry:     cfg.LiveExpiry(),
		RestingExpiry:  cfg.RestingExpiry(),
		ChaseIncrement: cfg.Execution.ResubmitIncrement,
	})

	runErr := engine.Run(ctx)

	shutdown(cfg, client, trading, notifier)

	if runErr != nil && runErr != context.Canceled {
		slog.Error("engine exited with error", "err", runErr)
		os.Exit(1)
	}
	slog.Info("whalebot stopped cleanly")
}

// buildExecutor elige entre el ejecutor real y el simulado. Devuelve el
// TradingClient aparte para el CancelAll del shutdown (nil en modo mock).
func buildExecutor(ctx context.Context, cfg *config.Config) (ports.OrderExecutor, *polymarket.TradingClient, error) {
	if cfg.Execution.Mock || !cfg.Execution.Enabled {
		return copier.NewSimulator(0), nil, nil
	}

	key, err := config.PrivateKey()
	if err != nil {
		return nil, nil, err
	}

	auth, err := polymarket.NewAuthClient(
		cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase,
		key, config.FunderAddress(),
	)
	if err != nil {
		return nil, nil, err
	}

	// el mismo endpoint de Polygon sirve para el feed y para balanceOf;
	// sin él, el balance sale del CLOB
	var rpc *ethclient.Client
	if cfg.Whale.RPCWS != "" {
		rpc, err = ethclient.DialContext(ctx, cfg.Whale.RPCWS)
		if err != nil {
			slog.Warn("rpc dial for balance failed, falling back to CLOB", "err", err)
			rpc = nil
		}
	}

	trading := polymarket.NewTradingClient(auth, rpc)
	return trading, trading, nil
}

func buildFeed(cfg *config.Config, client *polymarket.Client, replay int) (ports.WhaleFeed, error) {
	if replay > 0 {
		return newReplayFeed(client, cfg.Whale.Address, replay), nil
	}
	switch cfg.Whale.Source {
	case "rtds":
		return rtds.NewFeed(cfg.Whale.RTDSWS, cfg.Whale.Address), nil
	default:
		return onchain.NewFeed(cfg.Whale.RPCWS, cfg.Whale.Address)
	}
}

// shutdown cancela las órdenes resting y reporta la divergencia de cartera
// contra la ballena. Corre con contexto propio: el de señal ya está cancelado.
func shutdown(cfg *config.Config, client *polymarket.Client, trading *polymarket.TradingClient, notifier *notify.Console) {
	ctx, cancelFn := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelFn()

	if trading == nil {
		return
	}

	if err := trading.CancelAll(ctx); err != nil {
		slog.Warn("cancel open orders failed", "err", err)
	}

	own := config.FunderAddress()
	if own == "" {
		own = trading.Address()
	}
	ownValue, err := client.FetchUserValue(ctx, own)
	if err != nil {
		slog.Debug("own portfolio value unavailable", "err", err)
		return
	}
	whaleValue, err := client.FetchUserValue(ctx, cfg.Whale.Address)
	if err != nil {
		slog.Debug("whale portfolio value unavailable", "err", err)
		return
	}
	notifier.Divergence(ownValue, whaleValue)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
