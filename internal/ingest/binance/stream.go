package binance

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/pkg/exception"
	"main/pkg/websocket"

	"github.com/benbjohnson/clock"
	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	DefaultStreamBaseURL     = "wss://stream.binance.com:9443"
	DefaultMaxReconnectTries = 5
)

// ConnectionEvent reports a change of socket health.
type ConnectionEvent struct {
	Status enum.ConnectionStatus
	Err    error
}

// StreamConfig configures a StreamClient. Zero fields fall back to defaults.
type StreamConfig struct {
	BaseURL     string
	Dial        websocket.DialFunc
	Clock       clock.Clock
	Backoff     websocket.Backoff
	MaxAttempts int
	Names       Names
	Metrics     *obs.Metrics
}

// StreamClient owns one multiplexed ticker stream socket and its reconnect
// lifecycle: idle -> connecting -> open -> closed, where closed loops back
// to connecting until the backoff ceiling, or terminates at idle on an
// explicit Disconnect.
type StreamClient struct {
	cfg StreamConfig

	mu              sync.Mutex
	state           websocket.State
	conn            websocket.Conn
	streams         []string
	attempts        int
	shouldReconnect bool
	reconnectTimer  *clock.Timer
	dialCtx         context.Context
	// gen invalidates read loops and in-flight dials from earlier
	// connection cycles.
	gen uint64

	nextControlID atomic.Int64

	tickers     websocket.Emitter[model.Asset]
	connections websocket.Emitter[ConnectionEvent]
	messages    websocket.Emitter[[]byte]
}

// NewStreamClient builds a stream client.
func NewStreamClient(cfg StreamConfig) *StreamClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultStreamBaseURL
	}
	if cfg.Dial == nil {
		cfg.Dial = websocket.NewDialer()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Backoff == (websocket.Backoff{}) {
		cfg.Backoff = websocket.DefaultBackoff()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxReconnectTries
	}
	if cfg.Names == nil {
		cfg.Names = DefaultNames
	}
	return &StreamClient{cfg: cfg}
}

// OnTicker registers a handler for normalized ticker events.
func (c *StreamClient) OnTicker(fn func(model.Asset)) (cancel func()) {
	return c.tickers.Subscribe(fn)
}

// OnConnection registers a handler for socket health changes.
func (c *StreamClient) OnConnection(fn func(ConnectionEvent)) (cancel func()) {
	return c.connections.Subscribe(fn)
}

// OnMessage registers a handler receiving every well-formed inbound frame.
func (c *StreamClient) OnMessage(fn func([]byte)) (cancel func()) {
	return c.messages.Subscribe(fn)
}

// State returns the current lifecycle state.
func (c *StreamClient) State() websocket.State {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	return state
}

// Attempts returns the current reconnect attempt count.
func (c *StreamClient) Attempts() int {
	c.mu.Lock()
	attempts := c.attempts
	c.mu.Unlock()
	return attempts
}

// Connect opens the multiplexed socket for the given streams. It is a no-op
// while a connection is in flight or open. A non-nil streams list replaces
// the stored one and is re-sent verbatim on every reconnect.
func (c *StreamClient) Connect(ctx context.Context, streams []string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == websocket.StateConnecting || c.state == websocket.StateOpen {
		return
	}
	if streams != nil {
		c.streams = append([]string(nil), streams...)
	}
	c.shouldReconnect = true
	c.connectLocked(ctx)
}

// Disconnect is terminal: it cancels any pending reconnect, closes the
// socket, drops every registered handler and resets the attempt counter.
// A later Connect starts a fresh lifecycle.
func (c *StreamClient) Disconnect() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.shouldReconnect = false
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = websocket.StateIdle
	c.attempts = 0
	c.gen++
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.tickers.Reset()
	c.connections.Reset()
	c.messages.Reset()
}

// Subscribe sends a SUBSCRIBE control frame. Dropped silently unless open.
func (c *StreamClient) Subscribe(streams []string) error {
	return c.sendControl("SUBSCRIBE", streams)
}

// Unsubscribe sends an UNSUBSCRIBE control frame. Dropped silently unless open.
func (c *StreamClient) Unsubscribe(streams []string) error {
	return c.sendControl("UNSUBSCRIBE", streams)
}

// TickerStreams builds the stream identifiers for a watched symbol list.
func TickerStreams(symbols []string) []string {
	streams := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		streams = append(streams, strings.ToLower(symbol)+"@ticker")
	}
	return streams
}

// connectLocked assumes c.mu is held and the state allows a new dial.
func (c *StreamClient) connectLocked(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.state = websocket.StateConnecting
	c.dialCtx = ctx
	c.gen++
	url := c.cfg.BaseURL + "/stream?streams=" + strings.Join(c.streams, "/")
	go c.runDial(ctx, c.gen, url)
}

func (c *StreamClient) runDial(ctx context.Context, gen uint64, url string) {
	conn, err := c.cfg.Dial(ctx, url)

	c.mu.Lock()
	if gen != c.gen || c.state != websocket.StateConnecting {
		// Disconnected while the dial was in flight.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.state = websocket.StateClosed
		c.mu.Unlock()
		logs.Warnf("websocket dial failed: %+v", err)
		c.connections.Emit(ConnectionEvent{Status: enum.StatusError, Err: err})
		c.scheduleReconnect()
		return
	}
	c.conn = conn
	c.state = websocket.StateOpen
	c.attempts = 0
	c.mu.Unlock()

	logs.Infof("websocket connected: %s", url)
	c.connections.Emit(ConnectionEvent{Status: enum.StatusConnected})
	go c.readLoop(gen, conn)
}

func (c *StreamClient) readLoop(gen uint64, conn websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleFrame(payload)
	}
}

// handleFrame parses one inbound frame. Malformed JSON is logged and
// skipped without terminating the connection.
func (c *StreamClient) handleFrame(payload []byte) {
	var probe struct {
		EventType string `json:"e"`
	}
	if err := sonic.Unmarshal(payload, &probe); err != nil {
		c.cfg.Metrics.IncDroppedFrame()
		logs.Warnf("drop malformed frame: %+v", err)
		return
	}

	if probe.EventType == eventTypeTicker {
		var raw StreamTicker
		if err := sonic.Unmarshal(payload, &raw); err != nil {
			c.cfg.Metrics.IncDroppedFrame()
			logs.Warnf("drop ticker frame: %+v", err)
			return
		}
		asset, err := NormalizeStreamTicker(raw, c.cfg.Names)
		if err != nil {
			c.cfg.Metrics.IncDroppedFrame()
			logs.Warnf("drop ticker frame: %+v", err)
		} else {
			c.cfg.Metrics.IncTickerFrame()
			c.tickers.Emit(asset)
		}
	}

	c.messages.Emit(payload)
}

func (c *StreamClient) handleClose(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		// Stale loop from a cycle already torn down.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = websocket.StateClosed
	c.mu.Unlock()

	logs.Infof("websocket disconnected: %+v", err)
	c.connections.Emit(ConnectionEvent{Status: enum.StatusDisconnected, Err: err})
	c.scheduleReconnect()
}

func (c *StreamClient) scheduleReconnect() {
	c.mu.Lock()
	if !c.shouldReconnect || c.reconnectTimer != nil {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.cfg.MaxAttempts {
		c.mu.Unlock()
		logs.Warnf("%+v: gave up after %d attempts, call Connect to resume",
			exception.ErrReconnectExhausted, c.cfg.MaxAttempts)
		return
	}
	c.attempts++
	attempt := c.attempts
	delay := c.cfg.Backoff.Next(attempt)
	c.reconnectTimer = c.cfg.Clock.AfterFunc(delay, c.reconnect)
	c.mu.Unlock()

	c.cfg.Metrics.IncReconnect()
	logs.Infof("reconnecting in %s (attempt %d/%d)", delay, attempt, c.cfg.MaxAttempts)
}

func (c *StreamClient) reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconnectTimer = nil
	if !c.shouldReconnect {
		return
	}
	if c.state == websocket.StateConnecting || c.state == websocket.StateOpen {
		return
	}
	c.connectLocked(c.dialCtx)
}

func (c *StreamClient) sendControl(method string, streams []string) error {
	if c == nil {
		return exception.ErrNilInstance
	}
	c.mu.Lock()
	conn := c.conn
	open := c.state == websocket.StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		logs.Debugf("drop %s control frame: not connected", method)
		return nil
	}

	payload, err := sonic.Marshal(SubscribeRequest{
		Method: method,
		Params: streams,
		ID:     c.nextControlID.Add(1),
	})
	if err != nil {
		return errors.Wrap(err, "encode control frame")
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.Wrapf(exception.ErrConnection, "write control frame: %+v", err)
	}
	return nil
}
