package kcp

import (
	"context"
	"net"
	"sync"

	"github.com/uole/pulse/pkg/multiplex"
	kcp "github.com/xtaci/kcp-go"
	"github.com/xtaci/smux"
)

type (
	Listener struct {
		l *kcp.Listener
	}

	Session struct {
		conn       net.Conn
		sess       *smux.Session
		once       sync.Once
		acceptChan chan acceptResult
	}

	acceptResult struct {
		stream *smux.Stream
		err    error
	}
)

func newSession(conn net.Conn, server bool) (*Session, error) {
	var (
		err  error
		sess *smux.Session
	)
	cfg := smux.DefaultConfig()
	if server {
		sess, err = smux.Server(conn, cfg)
	} else {
		sess, err = smux.Client(conn, cfg)
	}
	if err != nil {
		return nil, err
	}
	return &Session{
		conn:       conn,
		sess:       sess,
		acceptChan: make(chan acceptResult),
	}, nil
}

func (sess *Session) acceptLoop() {
	for {
		stream, err := sess.sess.AcceptStream()
		select {
		case sess.acceptChan <- acceptResult{stream: stream, err: err}:
		case <-sess.sess.CloseChan():
			return
		}
		if err != nil {
			return
		}
	}
}

func (sess *Session) OpenStream(ctx context.Context) (multiplex.Stream, error) {
	return sess.sess.OpenStream()
}

func (sess *Session) AcceptStream(ctx context.Context) (multiplex.Stream, error) {
	sess.once.Do(func() {
		go sess.acceptLoop()
	})
	select {
	case r := <-sess.acceptChan:
		return r.stream, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (sess *Session) CloseChan() <-chan struct{} {
	return sess.sess.CloseChan()
}

func (sess *Session) Addr() net.Addr {
	return sess.conn.RemoteAddr()
}

func (sess *Session) Close() error {
	return sess.sess.Close()
}

func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}

func (l *Listener) Accept(ctx context.Context) (multiplex.Session, error) {
	conn, err := l.l.AcceptKCP()
	if err != nil {
		return nil, err
	}
	return newSession(conn, true)
}

func (l *Listener) Close() (err error) {
	return l.l.Close()
}
