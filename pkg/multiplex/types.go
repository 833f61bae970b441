// Package multiplex abstracts a stream-multiplexing transport: one physical
// connection carrying any number of independent byte streams. Implementations
// live in the tcp, kcp and quic subpackages.
package multiplex

import (
	"context"
	"io"
	"net"
)

type (
	Listener interface {
		Addr() net.Addr
		Accept(ctx context.Context) (Session, error)
		Close() (err error)
	}

	Session interface {
		Addr() net.Addr
		OpenStream(ctx context.Context) (Stream, error)
		AcceptStream(ctx context.Context) (Stream, error)
		// CloseChan closes when the physical connection is torn down, whether
		// locally or by the peer.
		CloseChan() <-chan struct{}
		Close() error
	}

	Stream interface {
		io.ReadWriteCloser
	}
)
