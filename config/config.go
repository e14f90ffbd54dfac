package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Whale     WhaleConfig     `yaml:"whale"`
	Sizing    SizingConfig    `yaml:"sizing"`
	Guard     GuardConfig     `yaml:"guard"`
	Execution ExecutionConfig `yaml:"execution"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// WhaleConfig identifica a la ballena y la fuente de sus fills.
type WhaleConfig struct {
	Address string `yaml:"address"` // dirección 0x del proxy wallet a copiar
	Source  string `yaml:"source"`  // onchain | rtds
	RPCWS   string `yaml:"rpc_ws"`  // endpoint WebSocket de Polygon (source=onchain)
	RTDSWS  string `yaml:"rtds_ws"` // endpoint WebSocket de RTDS (source=rtds)
}

// SizingConfig controla el escalado de las copias.
type SizingConfig struct {
	CopyRatio     float64 `yaml:"copy_ratio"`      // fracción base del tamaño de la ballena
	MinCashValue  float64 `yaml:"min_cash_value"`  // valor mínimo de una orden en USDC
	MinShareCount float64 `yaml:"min_share_count"` // suelo adicional de shares; 0 = solo el suelo de cash
	MinCopyShares float64 `yaml:"min_copy_shares"` // trades de ballena por debajo no se copian
	Probabilistic bool    `yaml:"probabilistic"`   // sortear copias por debajo del mínimo en vez de forzarlas
}

// GuardConfig controla el circuit breaker por token.
type GuardConfig struct {
	LargeTradeShares float64 `yaml:"large_trade_shares"`
	WindowSeconds    int     `yaml:"window_seconds"`
	TriggerCount     int     `yaml:"trigger_count"`
	MinDepthUSD      float64 `yaml:"min_depth_usd"`
	TripSeconds      int     `yaml:"trip_seconds"`
}

// ExecutionConfig controla el envío real de órdenes.
type ExecutionConfig struct {
	Enabled              bool `yaml:"enabled"` // false = pipeline completo sin enviar al CLOB
	Mock                 bool `yaml:"mock"`    // true = ejecutor simulado (fills sintéticos)
	Workers              int  `yaml:"workers"`
	QueueSize            int  `yaml:"queue_size"`
	SnapshotDelayMs      int  `yaml:"snapshot_delay_ms"`      // espera antes del snapshot post-trade
	LiveExpirySeconds    int  `yaml:"live_expiry_seconds"`    // GTD en mercados en vivo
	RestingExpirySeconds int  `yaml:"resting_expiry_seconds"` // GTD en el resto

	MinBalanceUSD     float64 `yaml:"min_balance_usd"`          // aviso al arrancar si el balance está por debajo
	ResubmitIncrement float64 `yaml:"resubmit_price_increment"` // subida de precio en el primer reenvío de los tiers con chase
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	DataBase  string `yaml:"data_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PrivateKey lee la clave de firma del entorno. Nunca vive en el YAML.
func PrivateKey() (string, error) {
	key := strings.TrimPrefix(os.Getenv("PRIVATE_KEY"), "0x")
	if key == "" {
		return "", fmt.Errorf("config: PRIVATE_KEY not set")
	}
	return key, nil
}

// FunderAddress devuelve la dirección del proxy wallet propio, si está definida.
func FunderAddress() string {
	return os.Getenv("FUNDER_ADDRESS")
}

// SnapshotDelay devuelve la espera del snapshot post-trade como time.Duration.
func (c *Config) SnapshotDelay() time.Duration {
	return time.Duration(c.Execution.SnapshotDelayMs) * time.Millisecond
}

// LiveExpiry devuelve la expiración GTD para mercados en vivo.
func (c *Config) LiveExpiry() time.Duration {
	return time.Duration(c.Execution.LiveExpirySeconds) * time.Second
}

// RestingExpiry devuelve la expiración GTD para mercados que no están en vivo.
func (c *Config) RestingExpiry() time.Duration {
	return time.Duration(c.Execution.RestingExpirySeconds) * time.Second
}

// GuardWindow devuelve la ventana deslizante del guard como time.Duration.
func (c *Config) GuardWindow() time.Duration {
	return time.Duration(c.Guard.WindowSeconds) * time.Second
}

// GuardTrip devuelve la duración del trip del guard como time.Duration.
func (c *Config) GuardTrip() time.Duration {
	return time.Duration(c.Guard.TripSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WHALE_ADDRESS"); v != "" {
		cfg.Whale.Address = v
	}
	if v := os.Getenv("RPC_WS_URL"); v != "" {
		cfg.Whale.RPCWS = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Whale.Source == "" {
		cfg.Whale.Source = "onchain"
	}
	if cfg.Whale.RTDSWS == "" {
		cfg.Whale.RTDSWS = "wss://ws-live-data.polymarket.com"
	}
	if cfg.Sizing.CopyRatio <= 0 {
		cfg.Sizing.CopyRatio = 0.02
	}
	if cfg.Sizing.MinCashValue <= 0 {
		cfg.Sizing.MinCashValue = 1.01
	}
	if cfg.Sizing.MinCopyShares <= 0 {
		cfg.Sizing.MinCopyShares = 1.0
	}
	if cfg.Guard.LargeTradeShares <= 0 {
		cfg.Guard.LargeTradeShares = 1500
	}
	if cfg.Guard.WindowSeconds <= 0 {
		cfg.Guard.WindowSeconds = 30
	}
	if cfg.Guard.TriggerCount <= 0 {
		cfg.Guard.TriggerCount = 2
	}
	if cfg.Guard.MinDepthUSD <= 0 {
		cfg.Guard.MinDepthUSD = 200
	}
	if cfg.Guard.TripSeconds <= 0 {
		cfg.Guard.TripSeconds = 120
	}
	if cfg.Execution.Workers <= 0 {
		cfg.Execution.Workers = 8
	}
	if cfg.Execution.QueueSize <= 0 {
		cfg.Execution.QueueSize = 1024
	}
	if cfg.Execution.SnapshotDelayMs <= 0 {
		cfg.Execution.SnapshotDelayMs = 2800
	}
	if cfg.Execution.LiveExpirySeconds <= 0 {
		cfg.Execution.LiveExpirySeconds = 61
	}
	if cfg.Execution.RestingExpirySeconds <= 0 {
		cfg.Execution.RestingExpirySeconds = 1800
	}
	if cfg.Execution.MinBalanceUSD <= 0 {
		cfg.Execution.MinBalanceUSD = 10
	}
	if cfg.Execution.ResubmitIncrement <= 0 {
		cfg.Execution.ResubmitIncrement = 0.01
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "whalebot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza configuraciones con las que el bot no puede arrancar.
func (c *Config) validate() error {
	if c.Whale.Address == "" {
		return fmt.Errorf("whale.address is required (or WHALE_ADDRESS env)")
	}
	if !strings.HasPrefix(c.Whale.Address, "0x") || len(c.Whale.Address) != 42 {
		return fmt.Errorf("whale.address %q is not a 0x address", c.Whale.Address)
	}
	switch c.Whale.Source {
	case "onchain":
		if c.Whale.RPCWS == "" {
			return fmt.Errorf("whale.rpc_ws is required when whale.source=onchain")
		}
	case "rtds":
	default:
		return fmt.Errorf("whale.source %q: must be onchain or rtds", c.Whale.Source)
	}
	return nil
}
