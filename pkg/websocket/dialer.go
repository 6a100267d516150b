package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
)

const DefaultHandshakeTimeout = 10 * time.Second

// NewDialer returns a DialFunc backed by gorilla/websocket.
func NewDialer() DialFunc {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
	return func(ctx context.Context, url string) (Conn, error) {
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "dial websocket")
		}
		return conn, nil
	}
}
