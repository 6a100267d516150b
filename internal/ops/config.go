package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/ingest/binance"
	"main/pkg/websocket"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Symbols      []string          `json:"symbols"`
	Names        map[string]string `json:"names"`
	Rest         RestConfig        `json:"rest"`
	Stream       StreamConfig      `json:"stream"`
	PollInterval int               `json:"pollIntervalMs"`
	Klines       KlinesConfig      `json:"klines"`
}

// RestConfig describes the snapshot endpoint.
type RestConfig struct {
	BaseURL string `json:"baseUrl"`
	Timeout int    `json:"timeoutMs"`
}

// StreamConfig describes the ticker stream endpoint.
type StreamConfig struct {
	BaseURL     string `json:"baseUrl"`
	MaxAttempts int    `json:"maxAttempts"`
	BackoffMin  int    `json:"backoffMinMs"`
	BackoffMax  int    `json:"backoffMaxMs"`
}

// KlinesConfig describes the sparkline backfill request.
type KlinesConfig struct {
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Symbols       []string
	Names         binance.Names
	RestBaseURL   string
	RestTimeout   time.Duration
	StreamBaseURL string
	MaxAttempts   int
	Backoff       websocket.Backoff
	PollInterval  time.Duration
	KlineInterval string
	KlineLimit    int
}

// Default returns the resolved configuration with built-in values.
func Default() Loaded {
	symbols := make([]string, 0, len(binance.DefaultNames))
	for symbol := range binance.DefaultNames {
		symbols = append(symbols, symbol)
	}
	loaded := Loaded{
		Symbols:       symbols,
		Names:         binance.DefaultNames,
		RestBaseURL:   binance.DefaultRestBaseURL,
		RestTimeout:   binance.DefaultRestTimeout,
		StreamBaseURL: binance.DefaultStreamBaseURL,
		MaxAttempts:   binance.DefaultMaxReconnectTries,
		Backoff:       websocket.DefaultBackoff(),
		PollInterval:  30 * time.Second,
		KlineInterval: "1h",
		KlineLimit:    24,
	}
	return loaded
}

// Load reads a JSON config file and resolves it over the defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	loaded := Default()
	if len(cfg.Symbols) > 0 {
		loaded.Symbols = cfg.Symbols
	}
	if len(cfg.Names) > 0 {
		names := make(binance.Names, len(binance.DefaultNames)+len(cfg.Names))
		for symbol, name := range binance.DefaultNames {
			names[symbol] = name
		}
		for symbol, name := range cfg.Names {
			names[symbol] = name
		}
		loaded.Names = names
	}
	if cfg.Rest.BaseURL != "" {
		loaded.RestBaseURL = cfg.Rest.BaseURL
	}
	if cfg.Rest.Timeout != 0 {
		if cfg.Rest.Timeout < 0 {
			return Loaded{}, fmt.Errorf("rest timeoutMs must be > 0")
		}
		loaded.RestTimeout = time.Duration(cfg.Rest.Timeout) * time.Millisecond
	}
	if cfg.Stream.BaseURL != "" {
		loaded.StreamBaseURL = cfg.Stream.BaseURL
	}
	if cfg.Stream.MaxAttempts != 0 {
		if cfg.Stream.MaxAttempts < 0 {
			return Loaded{}, fmt.Errorf("stream maxAttempts must be > 0")
		}
		loaded.MaxAttempts = cfg.Stream.MaxAttempts
	}
	if cfg.Stream.BackoffMin != 0 {
		if cfg.Stream.BackoffMin < 0 {
			return Loaded{}, fmt.Errorf("stream backoffMinMs must be > 0")
		}
		loaded.Backoff.Min = time.Duration(cfg.Stream.BackoffMin) * time.Millisecond
	}
	if cfg.Stream.BackoffMax != 0 {
		if cfg.Stream.BackoffMax < 0 {
			return Loaded{}, fmt.Errorf("stream backoffMaxMs must be > 0")
		}
		loaded.Backoff.Max = time.Duration(cfg.Stream.BackoffMax) * time.Millisecond
	}
	if loaded.Backoff.Max < loaded.Backoff.Min {
		return Loaded{}, fmt.Errorf("stream backoffMaxMs must be >= backoffMinMs")
	}
	if cfg.PollInterval != 0 {
		if cfg.PollInterval < 0 {
			return Loaded{}, fmt.Errorf("pollIntervalMs must be > 0")
		}
		loaded.PollInterval = time.Duration(cfg.PollInterval) * time.Millisecond
	}
	if cfg.Klines.Interval != "" {
		loaded.KlineInterval = cfg.Klines.Interval
	}
	if cfg.Klines.Limit != 0 {
		if cfg.Klines.Limit < 0 {
			return Loaded{}, fmt.Errorf("klines limit must be > 0")
		}
		loaded.KlineLimit = cfg.Klines.Limit
	}
	for _, symbol := range loaded.Symbols {
		if symbol == "" {
			return Loaded{}, fmt.Errorf("symbols must not contain empty entries")
		}
	}
	if len(loaded.Symbols) == 0 {
		return Loaded{}, fmt.Errorf("symbols must not be empty")
	}
	return loaded, nil
}
