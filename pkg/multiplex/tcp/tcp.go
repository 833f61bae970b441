// Package tcp provides a smux-multiplexed session over TCP, optionally
// wrapped in the encrypting and compressing stream codec.
package tcp

import (
	"context"
	"net"

	"github.com/uole/pulse/pkg/multiplex"
	"github.com/uole/pulse/pkg/stream"
)

type (
	Options struct {
		Key      []byte
		Compress bool
	}

	Option func(opts *Options)
)

func WithKey(key []byte) Option {
	return func(opts *Options) {
		opts.Key = key
	}
}

func WithCompress() Option {
	return func(opts *Options) {
		opts.Compress = true
	}
}

// wrap layers the stream codec over conn when encryption or compression is
// configured; otherwise the raw connection is used.
func (opts *Options) wrap(conn net.Conn) net.Conn {
	if len(opts.Key) == 0 && !opts.Compress {
		return conn
	}
	cbs := make([]stream.Option, 0, 2)
	if len(opts.Key) > 0 {
		cbs = append(cbs, stream.WithEncrypt(opts.Key))
	}
	if opts.Compress {
		cbs = append(cbs, stream.WithCompress())
	}
	return stream.New(conn, cbs...)
}

func Listen(addr string, cbs ...Option) (multiplex.Listener, error) {
	opts := &Options{}
	for _, cb := range cbs {
		cb(opts)
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{l: l, opts: opts}, nil
}

func Dial(ctx context.Context, addr string, cbs ...Option) (multiplex.Session, error) {
	var (
		err    error
		conn   net.Conn
		dialer net.Dialer
	)
	opts := &Options{}
	for _, cb := range cbs {
		cb(opts)
	}
	if conn, err = dialer.DialContext(ctx, "tcp", addr); err != nil {
		return nil, err
	}
	return newSession(opts.wrap(conn), false)
}
