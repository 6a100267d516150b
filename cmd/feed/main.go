package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"main/internal/ingest"
	"main/internal/ingest/binance"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/state"
	"main/pkg/websocket"

	"github.com/benbjohnson/clock"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
)

const _statsInterval = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logs.Errorf("feed: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "JSON config path (optional)")
	pyroscopeFlag := flag.String("pyroscope", "", "pyroscope server address (optional)")
	flag.Parse()

	cfg := ops.Default()
	if path := strings.TrimSpace(*configFlag); path != "" {
		loaded, err := ops.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if addr := strings.TrimSpace(*pyroscopeFlag); addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "feed",
			ServerAddress:   addr,
			Tags: map[string]string{
				"env": "local",
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.New()
	metrics := obs.NewMetrics()
	store := state.NewStore(cfg.Symbols, clk)
	rest := binance.NewRestClient(binance.RestConfig{
		BaseURL: cfg.RestBaseURL,
		Symbols: cfg.Symbols,
		Names:   cfg.Names,
		Timeout: cfg.RestTimeout,
	})
	stream := binance.NewStreamClient(binance.StreamConfig{
		BaseURL:     cfg.StreamBaseURL,
		Dial:        websocket.NewDialer(),
		Clock:       clk,
		Backoff:     cfg.Backoff,
		MaxAttempts: cfg.MaxAttempts,
		Names:       cfg.Names,
		Metrics:     metrics,
	})

	usecase, err := ingest.NewUsecase(ingest.Config{
		Store:         store,
		Rest:          rest,
		Stream:        stream,
		Clock:         clk,
		Metrics:       metrics,
		Symbols:       cfg.Symbols,
		PollInterval:  cfg.PollInterval,
		KlineInterval: cfg.KlineInterval,
		KlineLimit:    cfg.KlineLimit,
	})
	if err != nil {
		return err
	}

	if err := usecase.Start(ctx); err != nil {
		return err
	}
	defer usecase.Stop()

	logs.Infof("feed started, watching %d symbols", len(cfg.Symbols))

	ticker := clk.Ticker(_statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logs.Info("feed shutting down")
			return nil
		case <-ticker.C:
			logStats(store, metrics)
		}
	}
}

func logStats(store *state.Store, metrics *obs.Metrics) {
	snap := metrics.Snapshot()
	logs.Infof("status=%s assets=%d frames=%d dropped=%d reconnects=%d polls=%d/%d fetch_avg=%s",
		store.ConnectionStatus(),
		len(store.Assets()),
		snap.TickerFrames,
		snap.DroppedFrames,
		snap.Reconnects,
		snap.PollSuccesses,
		snap.PollSuccesses+snap.PollFailures,
		snap.FetchLatency.Avg,
	)
}

type emptyLogger struct{}

func (emptyLogger) Infof(string, ...any)  {}
func (emptyLogger) Debugf(string, ...any) {}
func (emptyLogger) Errorf(string, ...any) {}
