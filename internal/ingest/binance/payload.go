package binance

// RestTicker mirrors the fields consumed from the 24hr ticker endpoint.
// All numeric values arrive text-encoded.
type RestTicker struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	CloseTime          int64  `json:"closeTime"`
}

// StreamTicker mirrors a 24hrTicker stream event.
type StreamTicker struct {
	EventType     string `json:"e"`
	EventTime     int64  `json:"E"`
	Symbol        string `json:"s"`
	ClosePrice    string `json:"c"`
	OpenPrice     string `json:"o"`
	HighPrice     string `json:"h"`
	LowPrice      string `json:"l"`
	Volume        string `json:"v"`
	QuoteVolume   string `json:"q"`
	ChangePercent string `json:"P"`
}

// SubscribeRequest is the outbound stream control frame.
type SubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// apiError is the error object Binance returns on non-2xx responses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

const eventTypeTicker = "24hrTicker"
