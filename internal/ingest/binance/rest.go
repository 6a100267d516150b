package binance

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

const (
	DefaultRestBaseURL = "https://api.binance.com/api/v3"
	DefaultRestTimeout = 10 * time.Second
)

// RestConfig configures a RestClient. Zero fields fall back to defaults.
type RestConfig struct {
	BaseURL string
	Symbols []string
	Names   Names
	Timeout time.Duration
	Client  *http.Client
}

// RestClient fetches ticker snapshots and klines over the 24hr ticker and
// klines endpoints.
type RestClient struct {
	baseURL string
	symbols []string
	names   Names
	client  *http.Client
}

// NewRestClient builds a REST client for the watched symbol set.
func NewRestClient(cfg RestConfig) *RestClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRestBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRestTimeout
	}
	if cfg.Names == nil {
		cfg.Names = DefaultNames
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	return &RestClient{
		baseURL: cfg.BaseURL,
		symbols: append([]string(nil), cfg.Symbols...),
		names:   cfg.Names,
		client:  cfg.Client,
	}
}

// FetchAll fetches the full watched symbol set in one call and normalizes
// every element, preserving response order.
func (c *RestClient) FetchAll(ctx context.Context) ([]model.Asset, error) {
	if c == nil {
		return nil, exception.ErrNilInstance
	}
	encoded, err := sonic.Marshal(c.symbols)
	if err != nil {
		return nil, errors.Wrap(err, "encode symbols")
	}

	body, err := c.get(ctx, "/ticker/24hr?symbols="+url.QueryEscape(string(encoded)))
	if err != nil {
		return nil, err
	}

	var tickers []RestTicker
	if err := sonic.Unmarshal(body, &tickers); err != nil {
		return nil, errors.Wrapf(exception.ErrSchema, "decode tickers: %+v", err)
	}
	if len(tickers) == 0 {
		return nil, errors.Wrap(exception.ErrEmptyResponse, "fetch tickers")
	}

	assets := make([]model.Asset, 0, len(tickers))
	for _, ticker := range tickers {
		asset, err := NormalizeRestTicker(ticker, c.names)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// FetchTicker fetches and normalizes a single symbol.
func (c *RestClient) FetchTicker(ctx context.Context, symbol string) (model.Asset, error) {
	if c == nil {
		return model.Asset{}, exception.ErrNilInstance
	}
	body, err := c.get(ctx, "/ticker/24hr?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return model.Asset{}, err
	}

	var ticker RestTicker
	if err := sonic.Unmarshal(body, &ticker); err != nil {
		return model.Asset{}, errors.Wrapf(exception.ErrSchema, "decode ticker: %+v", err)
	}
	return NormalizeRestTicker(ticker, c.names)
}

// FetchKlines returns close prices only, oldest first, at most limit entries.
func (c *RestClient) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]float64, error) {
	if c == nil {
		return nil, exception.ErrNilInstance
	}
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/klines?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var rows [][]any
	if err := sonic.Unmarshal(body, &rows); err != nil {
		return nil, errors.Wrapf(exception.ErrSchema, "decode klines: %+v", err)
	}
	return KlineCloses(rows)
}

func (c *RestClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(exception.ErrNetwork, "%+v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(exception.ErrNetwork, "read body: %+v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(exception.ErrUpstreamStatus, "status %d: %s", resp.StatusCode, upstreamMessage(body))
	}
	return body, nil
}

// upstreamMessage extracts the Binance error message when the body carries
// one, so callers surface the upstream reason rather than raw JSON.
func upstreamMessage(body []byte) string {
	var apiErr apiError
	if err := sonic.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return string(body)
}
