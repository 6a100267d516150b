package binance

import (
	"math"
	"strconv"
	"strings"
	"time"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Names resolves an exchange symbol to its display name.
type Names map[string]string

// Resolve returns the display name for symbol, falling back to the symbol
// with its quote suffix stripped.
func (n Names) Resolve(symbol string) string {
	if name, ok := n[symbol]; ok {
		return name
	}
	return strings.TrimSuffix(symbol, "USDT")
}

// DefaultNames covers the default watched symbol set.
var DefaultNames = Names{
	"BTCUSDT":   "Bitcoin",
	"ETHUSDT":   "Ethereum",
	"ADAUSDT":   "Cardano",
	"SOLUSDT":   "Solana",
	"DOTUSDT":   "Polkadot",
	"LINKUSDT":  "Chainlink",
	"MATICUSDT": "Polygon",
	"AVAXUSDT":  "Avalanche",
}

// NormalizeRestTicker maps a 24hr ticker response element to the canonical
// asset. Pure; any missing or non-numeric field yields exception.ErrSchema.
func NormalizeRestTicker(raw RestTicker, names Names) (model.Asset, error) {
	if raw.Symbol == "" {
		return model.Asset{}, errors.Wrap(exception.ErrSchema, "rest ticker: missing symbol")
	}

	price, err := parseNumeric("lastPrice", raw.LastPrice)
	if err != nil {
		return model.Asset{}, err
	}
	change, err := parseNumeric("priceChange", raw.PriceChange)
	if err != nil {
		return model.Asset{}, err
	}
	changePercent, err := parseNumeric("priceChangePercent", raw.PriceChangePercent)
	if err != nil {
		return model.Asset{}, err
	}
	volume, err := parseNumeric("volume", raw.Volume)
	if err != nil {
		return model.Asset{}, err
	}
	high, err := parseNumeric("highPrice", raw.HighPrice)
	if err != nil {
		return model.Asset{}, err
	}
	low, err := parseNumeric("lowPrice", raw.LowPrice)
	if err != nil {
		return model.Asset{}, err
	}

	return model.Asset{
		ID:               strings.ToLower(raw.Symbol),
		Symbol:           raw.Symbol,
		Name:             names.Resolve(raw.Symbol),
		Price:            price,
		Change24h:        change,
		ChangePercent24h: changePercent,
		Volume24h:        volume,
		High24h:          high,
		Low24h:           low,
		LastUpdated:      time.UnixMilli(raw.CloseTime),
	}, nil
}

// NormalizeStreamTicker maps a 24hrTicker stream event to the canonical
// asset. Change24h derives from close minus open.
func NormalizeStreamTicker(raw StreamTicker, names Names) (model.Asset, error) {
	if raw.Symbol == "" {
		return model.Asset{}, errors.Wrap(exception.ErrSchema, "stream ticker: missing symbol")
	}

	closePrice, err := parseNumeric("c", raw.ClosePrice)
	if err != nil {
		return model.Asset{}, err
	}
	openPrice, err := parseNumeric("o", raw.OpenPrice)
	if err != nil {
		return model.Asset{}, err
	}
	changePercent, err := parseNumeric("P", raw.ChangePercent)
	if err != nil {
		return model.Asset{}, err
	}
	volume, err := parseNumeric("v", raw.Volume)
	if err != nil {
		return model.Asset{}, err
	}
	high, err := parseNumeric("h", raw.HighPrice)
	if err != nil {
		return model.Asset{}, err
	}
	low, err := parseNumeric("l", raw.LowPrice)
	if err != nil {
		return model.Asset{}, err
	}
	if _, err := parseNumeric("q", raw.QuoteVolume); err != nil {
		return model.Asset{}, err
	}

	return model.Asset{
		ID:               strings.ToLower(raw.Symbol),
		Symbol:           raw.Symbol,
		Name:             names.Resolve(raw.Symbol),
		Price:            closePrice,
		Change24h:        closePrice - openPrice,
		ChangePercent24h: changePercent,
		Volume24h:        volume,
		High24h:          high,
		Low24h:           low,
		LastUpdated:      time.UnixMilli(raw.EventTime),
	}, nil
}

// KlineCloses extracts close prices (index 4, text-encoded) from kline rows,
// oldest first.
func KlineCloses(rows [][]any) ([]float64, error) {
	closes := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) <= 4 {
			return nil, errors.Wrapf(exception.ErrSchema, "kline row %d: %d columns", i, len(row))
		}
		text, ok := row[4].(string)
		if !ok {
			return nil, errors.Wrapf(exception.ErrSchema, "kline row %d: close is not text", i)
		}
		closePrice, err := parseNumeric("close", text)
		if err != nil {
			return nil, err
		}
		closes = append(closes, closePrice)
	}
	return closes, nil
}

func parseNumeric(field, value string) (float64, error) {
	if value == "" {
		return 0, errors.Wrapf(exception.ErrSchema, "missing field %s", field)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, errors.Wrapf(exception.ErrSchema, "field %s: %q is not numeric", field, value)
	}
	return parsed, nil
}
