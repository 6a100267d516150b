package binance

import (
	"github.com/yanun0323/errors"
	"testing"
	"time"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeRestTicker(t *testing.T) {
	raw := RestTicker{
		Symbol:             "BTCUSDT",
		PriceChange:        "1250.50",
		PriceChangePercent: "2.95",
		LastPrice:          "43250.75",
		Volume:             "28450.123",
		HighPrice:          "43890.00",
		LowPrice:           "41980.25",
		CloseTime:          1700000000000,
	}
	asset, err := NormalizeRestTicker(raw, DefaultNames)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := model.Asset{
		ID:               "btcusdt",
		Symbol:           "BTCUSDT",
		Name:             "Bitcoin",
		Price:            43250.75,
		Change24h:        1250.50,
		ChangePercent24h: 2.95,
		Volume24h:        28450.123,
		High24h:          43890.00,
		Low24h:           41980.25,
		LastUpdated:      time.UnixMilli(1700000000000),
	}
	if diff := cmp.Diff(want, asset); diff != "" {
		t.Fatalf("asset mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRestTickerUnknownSymbolName(t *testing.T) {
	raw := RestTicker{
		Symbol:             "XRPUSDT",
		PriceChange:        "0.01",
		PriceChangePercent: "1.5",
		LastPrice:          "0.68",
		Volume:             "100",
		HighPrice:          "0.70",
		LowPrice:           "0.65",
		CloseTime:          1700000000000,
	}
	asset, err := NormalizeRestTicker(raw, DefaultNames)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if asset.Name != "XRP" {
		t.Fatalf("name fallback mismatch: got %q", asset.Name)
	}
}

func TestNormalizeRestTickerMalformed(t *testing.T) {
	for name, mutate := range map[string]func(*RestTicker){
		"missing symbol":    func(r *RestTicker) { r.Symbol = "" },
		"empty lastPrice":   func(r *RestTicker) { r.LastPrice = "" },
		"garbage lastPrice": func(r *RestTicker) { r.LastPrice = "not-a-number" },
		"nan volume":        func(r *RestTicker) { r.Volume = "NaN" },
		"inf highPrice":     func(r *RestTicker) { r.HighPrice = "Inf" },
	} {
		raw := RestTicker{
			Symbol:             "BTCUSDT",
			PriceChange:        "1",
			PriceChangePercent: "1",
			LastPrice:          "1",
			Volume:             "1",
			HighPrice:          "1",
			LowPrice:           "1",
			CloseTime:          1700000000000,
		}
		mutate(&raw)
		if _, err := NormalizeRestTicker(raw, DefaultNames); !errors.Is(err, exception.ErrSchema) {
			t.Fatalf("%s: want ErrSchema, got %v", name, err)
		}
	}
}

func TestNormalizeStreamTicker(t *testing.T) {
	raw := StreamTicker{
		EventType:     eventTypeTicker,
		EventTime:     1700000000000,
		Symbol:        "ETHUSDT",
		ClosePrice:    "3175.25",
		OpenPrice:     "3245.00",
		HighPrice:     "3260.10",
		LowPrice:      "3150.00",
		Volume:        "120500.5",
		QuoteVolume:   "385000000",
		ChangePercent: "-2.15",
	}
	asset, err := NormalizeStreamTicker(raw, DefaultNames)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := model.Asset{
		ID:               "ethusdt",
		Symbol:           "ETHUSDT",
		Name:             "Ethereum",
		Price:            3175.25,
		Change24h:        3175.25 - 3245.00,
		ChangePercent24h: -2.15,
		Volume24h:        120500.5,
		High24h:          3260.10,
		Low24h:           3150.00,
		LastUpdated:      time.UnixMilli(1700000000000),
	}
	if diff := cmp.Diff(want, asset); diff != "" {
		t.Fatalf("asset mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeStreamTickerMalformed(t *testing.T) {
	raw := StreamTicker{
		EventType:     eventTypeTicker,
		EventTime:     1700000000000,
		Symbol:        "ETHUSDT",
		ClosePrice:    "abc",
		OpenPrice:     "3245.00",
		HighPrice:     "3260.10",
		LowPrice:      "3150.00",
		Volume:        "120500.5",
		QuoteVolume:   "385000000",
		ChangePercent: "-2.15",
	}
	if _, err := NormalizeStreamTicker(raw, DefaultNames); !errors.Is(err, exception.ErrSchema) {
		t.Fatalf("want ErrSchema, got %v", err)
	}
}

func TestKlineCloses(t *testing.T) {
	rows := [][]any{
		{float64(1700000000000), "100", "110", "95", "105.5", "1000"},
		{float64(1700003600000), "105.5", "112", "101", "108.25", "900"},
	}
	closes, err := KlineCloses(rows)
	if err != nil {
		t.Fatalf("kline closes: %v", err)
	}
	want := []float64{105.5, 108.25}
	if diff := cmp.Diff(want, closes); diff != "" {
		t.Fatalf("closes mismatch (-want +got):\n%s", diff)
	}
}

func TestKlineClosesMalformed(t *testing.T) {
	short := [][]any{{float64(1), "100", "110", "95"}}
	if _, err := KlineCloses(short); !errors.Is(err, exception.ErrSchema) {
		t.Fatalf("short row: want ErrSchema, got %v", err)
	}
	notText := [][]any{{float64(1), "100", "110", "95", 105.5, "1000"}}
	if _, err := KlineCloses(notText); !errors.Is(err, exception.ErrSchema) {
		t.Fatalf("numeric close: want ErrSchema, got %v", err)
	}
}

func TestNamesResolve(t *testing.T) {
	names := Names{"BTCUSDT": "Bitcoin"}
	if got := names.Resolve("BTCUSDT"); got != "Bitcoin" {
		t.Fatalf("resolve known: got %q", got)
	}
	if got := names.Resolve("DOGEUSDT"); got != "DOGE" {
		t.Fatalf("resolve fallback: got %q", got)
	}
	if got := names.Resolve("BTCBUSD"); got != "BTCBUSD" {
		t.Fatalf("resolve unsuffixed: got %q", got)
	}
}
