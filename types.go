package pulse

import (
	"context"

	"github.com/uole/pulse/pkg/packet"
)

const (
	// DefaultChannelName is the well-known channel identifier used when the
	// caller does not pick one.
	DefaultChannelName = "pulse"

	// EncodingJSON is the payload encoding negotiated on channel open.
	EncodingJSON = "json"
)

const (
	RoleInitiator Role = iota + 1
	RoleAcceptor
)

type (
	// Role selects which side of the heartbeat protocol a session plays. The
	// initiator opens the channel and drives periodic heartbeat requests; the
	// acceptor waits for the channel and replies to requests.
	Role int

	// EventKind is the kind of heartbeat activity observed on a session.
	EventKind string

	// Event is one observed heartbeat exchange half. A "ping" is a heartbeat
	// request seen or sent; a "pong" is an acknowledgment seen or sent.
	Event struct {
		Kind    EventKind
		Channel Channel
	}

	// Channel is a single open logical duplex stream bound to one channel
	// identifier. Sessions reference channels, the provider owns them.
	Channel interface {
		ID() string
		Write(f *packet.Frame) error
		Read() (*packet.Frame, error)
		IsDestroyed() bool
		Destroy() error
	}

	// Provider produces logical channels over a shared multiplexed transport
	// and reports when the owning endpoint itself is torn down.
	Provider interface {
		OpenInitiator(ctx context.Context, name string) (Channel, error)
		OpenAcceptor(ctx context.Context, name string) (Channel, error)
		Done() <-chan struct{}
	}
)

const (
	EventPing EventKind = "ping"
	EventPong EventKind = "pong"
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleAcceptor:
		return "acceptor"
	default:
		return "unknown"
	}
}
