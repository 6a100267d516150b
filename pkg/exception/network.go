package exception

import "github.com/yanun0323/errors"

// REST transport errors
var (
	ErrNetwork        = errors.New("network: request failed")
	ErrUpstreamStatus = errors.New("network: unexpected upstream status")
)
