package enum

type ConnectionStatus uint8

const (
	_connection_status_beg ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusDisconnected
	StatusError
	_connection_status_end
)

func (s ConnectionStatus) IsAvailable() bool {
	return s > _connection_status_beg && s < _connection_status_end
}

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
