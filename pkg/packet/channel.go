package packet

const (
	TypeChannelOpen   = 0x01
	TypeChannelAccept = 0x02
	TypeChannelReject = 0x03
)

type (
	// ChannelOpenRequest asks the accepting side to bind the fresh stream to
	// the named logical channel with the given payload encoding.
	ChannelOpenRequest struct {
		Name     string `json:"name"`
		Encoding string `json:"encoding"`
	}

	ChannelOpenResponse struct {
		Name    string `json:"name"`
		Success bool   `json:"success"`
		Reason  string `json:"reason,omitempty"`
	}
)
