package quic

import (
	"context"
	"io"
	"net"

	"github.com/quic-go/quic-go"
	"github.com/uole/pulse/pkg/multiplex"
)

type (
	Listener struct {
		l quic.Listener
	}

	Session struct {
		conn quic.Connection
	}
)

func (sess *Session) Addr() net.Addr {
	return sess.conn.RemoteAddr()
}

func (sess *Session) OpenStream(ctx context.Context) (multiplex.Stream, error) {
	return sess.conn.OpenStreamSync(ctx)
}

func (sess *Session) AcceptStream(ctx context.Context) (multiplex.Stream, error) {
	return sess.conn.AcceptStream(ctx)
}

func (sess *Session) CloseChan() <-chan struct{} {
	return sess.conn.Context().Done()
}

func (sess *Session) Close() error {
	return sess.conn.CloseWithError(1000, io.ErrClosedPipe.Error())
}

func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}

func (l *Listener) Accept(ctx context.Context) (multiplex.Session, error) {
	conn, err := l.l.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{conn: conn}, nil
}

func (l *Listener) Close() error {
	return l.l.Close()
}
