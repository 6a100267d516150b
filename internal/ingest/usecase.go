package ingest

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"main/internal/ingest/binance"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/state"
	"main/pkg/exception"

	"github.com/benbjohnson/clock"
	"github.com/yanun0323/logs"
)

const (
	DefaultPollInterval = 30 * time.Second

	// Approximate circulating BTC supply used for the market-cap figure.
	btcSupply = 19_000_000
)

// Config wires the usecase dependencies. Store, Rest and Stream are
// required; zero optional fields fall back to defaults.
type Config struct {
	Store   *state.Store
	Rest    *binance.RestClient
	Stream  *binance.StreamClient
	Clock   clock.Clock
	Metrics *obs.Metrics

	Symbols       []string
	PollInterval  time.Duration
	KlineInterval string
	KlineLimit    int
}

// Usecase owns the ingestion composition lifecycle: the initial snapshot
// fetch, the polling loop, and the stream subscription, all feeding the
// store.
type Usecase struct {
	cfg Config

	mu      sync.Mutex
	started bool
	cancels []func()
	ticker  *clock.Ticker
	stop    chan struct{}
}

// NewUsecase validates dependencies and builds the usecase.
func NewUsecase(cfg Config) (*Usecase, error) {
	if cfg.Store == nil || cfg.Rest == nil || cfg.Stream == nil {
		return nil, exception.ErrNilInstance
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.KlineInterval == "" {
		cfg.KlineInterval = "1h"
	}
	if cfg.KlineLimit <= 0 {
		cfg.KlineLimit = 24
	}
	return &Usecase{cfg: cfg}, nil
}

// Start populates the store from a snapshot fetch, opens the ticker stream
// and begins polling. A failed initial fetch is surfaced to the store but
// does not prevent the stream from opening; the two lifecycles are
// independent. Calling Start twice is a no-op.
func (u *Usecase) Start(ctx context.Context) error {
	if u == nil {
		return exception.ErrNilInstance
	}
	u.mu.Lock()
	if u.started {
		u.mu.Unlock()
		return nil
	}
	u.started = true
	u.stop = make(chan struct{})
	stop := u.stop
	u.mu.Unlock()

	u.cfg.Store.SetLoading(true)
	u.refresh(ctx)
	if u.cfg.Store.Error() == "" {
		u.cfg.Store.SetConnectionStatus(enum.StatusConnected)
		u.cfg.Store.SetLoading(false)
	} else {
		u.cfg.Store.SetConnectionStatus(enum.StatusDisconnected)
	}

	u.backfillSparklines(ctx)

	offTicker := u.cfg.Stream.OnTicker(func(asset model.Asset) {
		u.cfg.Store.UpdateAsset(asset)
	})
	offConnection := u.cfg.Stream.OnConnection(func(event binance.ConnectionEvent) {
		u.cfg.Store.SetConnectionStatus(event.Status)
	})

	ticker := u.cfg.Clock.Ticker(u.cfg.PollInterval)

	u.mu.Lock()
	u.cancels = append(u.cancels, offTicker, offConnection)
	u.ticker = ticker
	u.mu.Unlock()

	u.cfg.Stream.Connect(ctx, binance.TickerStreams(u.cfg.Symbols))

	go u.pollLoop(ctx, ticker, stop)
	return nil
}

// Stop tears the composition down: handler registrations, the poll loop and
// the stream. Idempotent, and safe even if Start never completed.
func (u *Usecase) Stop() {
	if u == nil {
		return
	}
	u.mu.Lock()
	if !u.started {
		u.mu.Unlock()
		return
	}
	u.started = false
	cancels := u.cancels
	u.cancels = nil
	ticker := u.ticker
	u.ticker = nil
	stop := u.stop
	u.stop = nil
	u.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if ticker != nil {
		ticker.Stop()
	}
	if stop != nil {
		close(stop)
	}
	u.cfg.Stream.Disconnect()
}

func (u *Usecase) pollLoop(ctx context.Context, ticker *clock.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.refresh(ctx)
		}
	}
}

// refresh fetches a full snapshot. Success replaces the store wholesale;
// failure surfaces the error string and leaves the previous assets intact.
func (u *Usecase) refresh(ctx context.Context) {
	started := u.cfg.Clock.Now()
	assets, err := u.cfg.Rest.FetchAll(ctx)
	u.cfg.Metrics.ObserveFetch(u.cfg.Clock.Since(started))
	if err != nil {
		u.cfg.Metrics.IncPollFailure()
		logs.Warnf("snapshot fetch failed: %+v", err)
		u.cfg.Store.SetError(err.Error())
		return
	}
	u.cfg.Metrics.IncPollSuccess()
	u.cfg.Store.SetAssets(assets)
	u.cfg.Store.SetMarketData(deriveMarketData(assets))
}

// backfillSparklines attaches recent close prices to the watched assets.
// Best effort; a failed kline fetch only skips that symbol.
func (u *Usecase) backfillSparklines(ctx context.Context) {
	for _, symbol := range u.cfg.Symbols {
		closes, err := u.cfg.Rest.FetchKlines(ctx, symbol, u.cfg.KlineInterval, u.cfg.KlineLimit)
		if err != nil {
			logs.Debugf("skip sparkline for %s: %+v", symbol, err)
			continue
		}
		u.cfg.Store.SetSparkline(symbol, closes)
	}
}

func deriveMarketData(assets []model.Asset) model.MarketData {
	var totalVolume float64
	var btcPrice float64
	for _, asset := range assets {
		totalVolume += asset.Volume24h
		if asset.Symbol == "BTCUSDT" {
			btcPrice = asset.Price
		}
	}
	return model.MarketData{
		TotalMarketCap: btcPrice * btcSupply,
		TotalVolume24h: totalVolume,
		BTCDominance:   45,
		ActiveAssets:   len(assets),
		FearGreedIndex: rand.Intn(100),
	}
}
