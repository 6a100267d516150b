package exception

import "github.com/yanun0323/errors"

// Normalizer errors
var (
	ErrSchema        = errors.New("market data: malformed payload")
	ErrEmptyResponse = errors.New("market data: empty response")
)
