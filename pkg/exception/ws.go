package exception

import "github.com/yanun0323/errors"

// WS errors
var (
	ErrConnection         = errors.New("websocket: connection failed")
	ErrNotConnected       = errors.New("websocket: not connected")
	ErrReconnectExhausted = errors.New("websocket: reconnect attempts exhausted")
)
