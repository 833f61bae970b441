package packet

const (
	TypePing = 0x05
	TypePong = 0x06
)

type (
	PingRequest struct {
		Timestamp int64 `json:"timestamp"`
	}

	PongResponse struct {
		Timestamp int64 `json:"timestamp"`
	}
)
