package state

import (
	"testing"
	"time"

	"main/internal/model"
	"main/internal/model/enum"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
)

func asset(symbol string, price, changePercent float64) model.Asset {
	return model.Asset{
		ID:               symbol,
		Symbol:           symbol,
		Price:            price,
		ChangePercent24h: changePercent,
	}
}

func TestSetAssetsReplacesWholeMap(t *testing.T) {
	mock := clock.NewMock()
	store := NewStore(nil, mock)

	store.SetAssets([]model.Asset{asset("BTCUSDT", 43000, 2.9), asset("ETHUSDT", 3100, -2.1)})
	store.SetError("stale failure")

	mock.Add(time.Minute)
	store.SetAssets([]model.Asset{asset("SOLUSDT", 98, 5.4)})

	if _, ok := store.Asset("BTCUSDT"); ok {
		t.Fatalf("replaced asset still present")
	}
	got, ok := store.Asset("SOLUSDT")
	if !ok {
		t.Fatalf("missing SOLUSDT")
	}
	if diff := cmp.Diff(asset("SOLUSDT", 98, 5.4), got); diff != "" {
		t.Fatalf("asset mismatch (-want +got):\n%s", diff)
	}
	if store.Error() != "" {
		t.Fatalf("error not cleared: %q", store.Error())
	}
	if !store.LastUpdated().Equal(mock.Now()) {
		t.Fatalf("lastUpdated mismatch: %s", store.LastUpdated())
	}
}

func TestUpdateAssetTouchesOneSymbol(t *testing.T) {
	store := NewStore(nil, clock.NewMock())
	store.SetAssets([]model.Asset{asset("BTCUSDT", 43000, 2.9), asset("ETHUSDT", 3100, -2.1)})

	store.UpdateAsset(asset("BTCUSDT", 43500, 3.1))

	btc, _ := store.Asset("BTCUSDT")
	if btc.Price != 43500 {
		t.Fatalf("BTCUSDT not updated: %+v", btc)
	}
	eth, _ := store.Asset("ETHUSDT")
	if eth.Price != 3100 {
		t.Fatalf("ETHUSDT disturbed: %+v", eth)
	}
	if len(store.Assets()) != 2 {
		t.Fatalf("asset count: %d", len(store.Assets()))
	}
}

func TestSetSparkline(t *testing.T) {
	store := NewStore(nil, clock.NewMock())
	store.SetAssets([]model.Asset{asset("BTCUSDT", 43000, 2.9)})

	store.SetSparkline("BTCUSDT", []float64{1, 2, 3})
	store.SetSparkline("ETHUSDT", []float64{4, 5})

	btc, _ := store.Asset("BTCUSDT")
	if diff := cmp.Diff([]float64{1, 2, 3}, btc.Sparkline); diff != "" {
		t.Fatalf("sparkline mismatch (-want +got):\n%s", diff)
	}
	if _, ok := store.Asset("ETHUSDT"); ok {
		t.Fatalf("sparkline created a phantom asset")
	}
}

func TestConnectionStatusDerivesConnected(t *testing.T) {
	store := NewStore(nil, clock.NewMock())

	if store.ConnectionStatus() != enum.StatusDisconnected || store.IsConnected() {
		t.Fatalf("fresh store not disconnected")
	}

	store.SetConnectionStatus(enum.StatusConnected)
	if !store.IsConnected() {
		t.Fatalf("connected flag not derived")
	}

	store.SetConnectionStatus(enum.StatusError)
	if store.IsConnected() {
		t.Fatalf("connected flag stuck")
	}
}

func TestSetErrorClearsLoading(t *testing.T) {
	store := NewStore(nil, clock.NewMock())
	store.SetLoading(true)
	store.SetError("fetch failed")

	if store.Loading() {
		t.Fatalf("loading not cleared")
	}
	if store.Error() != "fetch failed" {
		t.Fatalf("error: %q", store.Error())
	}
}

func TestWatchlist(t *testing.T) {
	store := NewStore([]string{"BTCUSDT", "ETHUSDT"}, clock.NewMock())
	store.SetAssets([]model.Asset{
		asset("BTCUSDT", 43000, 2.9),
		asset("SOLUSDT", 98, 5.4),
	})

	store.AddToWatchlist("SOLUSDT")
	store.AddToWatchlist("SOLUSDT")
	store.RemoveFromWatchlist("ETHUSDT")

	if diff := cmp.Diff([]string{"BTCUSDT", "SOLUSDT"}, store.Watchlist()); diff != "" {
		t.Fatalf("watchlist mismatch (-want +got):\n%s", diff)
	}

	watched := store.WatchlistAssets()
	if len(watched) != 2 || watched[0].Symbol != "BTCUSDT" || watched[1].Symbol != "SOLUSDT" {
		t.Fatalf("watchlist assets: %+v", watched)
	}
}

func TestTopGainersAndLosers(t *testing.T) {
	store := NewStore(nil, clock.NewMock())
	store.SetAssets([]model.Asset{
		asset("BTCUSDT", 43000, 2.9),
		asset("ETHUSDT", 3100, -2.1),
		asset("SOLUSDT", 98, 5.4),
		asset("ADAUSDT", 0.5, -2.1),
	})

	gainers := store.TopGainers(2)
	if len(gainers) != 2 || gainers[0].Symbol != "SOLUSDT" || gainers[1].Symbol != "BTCUSDT" {
		t.Fatalf("gainers: %+v", gainers)
	}

	losers := store.TopLosers(3)
	if len(losers) != 3 {
		t.Fatalf("losers length: %d", len(losers))
	}
	// Equal changes tie-break on symbol.
	if losers[0].Symbol != "ADAUSDT" || losers[1].Symbol != "ETHUSDT" {
		t.Fatalf("losers order: %+v", losers)
	}
}

func TestMarketData(t *testing.T) {
	store := NewStore(nil, clock.NewMock())
	if _, ok := store.MarketData(); ok {
		t.Fatalf("market data present on fresh store")
	}

	want := model.MarketData{TotalVolume24h: 123, ActiveAssets: 4}
	store.SetMarketData(want)
	got, ok := store.MarketData()
	if !ok {
		t.Fatalf("market data missing")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("market data mismatch (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	store := NewStore([]string{"BTCUSDT"}, clock.NewMock())
	store.SetAssets([]model.Asset{asset("BTCUSDT", 43000, 2.9)})
	store.SetMarketData(model.MarketData{ActiveAssets: 1})
	store.AddToWatchlist("ETHUSDT")
	store.SetConnectionStatus(enum.StatusConnected)
	store.SetLoading(true)
	store.SetError("boom")

	store.Reset()

	if len(store.Assets()) != 0 {
		t.Fatalf("assets survived reset")
	}
	if _, ok := store.MarketData(); ok {
		t.Fatalf("market data survived reset")
	}
	if diff := cmp.Diff([]string{"BTCUSDT"}, store.Watchlist()); diff != "" {
		t.Fatalf("watchlist not restored (-want +got):\n%s", diff)
	}
	if store.Loading() || store.Error() != "" || store.IsConnected() {
		t.Fatalf("flags survived reset")
	}
	if !store.LastUpdated().IsZero() {
		t.Fatalf("lastUpdated survived reset")
	}
}
