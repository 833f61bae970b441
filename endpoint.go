package pulse

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/uole/pulse/internal/sequence"
	"github.com/uole/pulse/pkg/multiplex"
	"github.com/uole/pulse/pkg/packet"
)

type (
	EndpointOption func(ep *Endpoint)

	// Endpoint adapts a multiplexed transport session into a channel provider.
	// The initiator side opens a fresh stream and performs a channel-open
	// handshake naming the logical channel; the acceptor side accepts streams
	// until one asks for the expected name. Done closes when the underlying
	// transport session is torn down.
	Endpoint struct {
		id        string
		sess      multiplex.Session
		encoding  string
		logger    zerolog.Logger
		closeFlag int32
		closeChan chan struct{}
	}
)

// WithEndpointLogger injects a logger into the endpoint.
func WithEndpointLogger(logger zerolog.Logger) EndpointOption {
	return func(ep *Endpoint) {
		ep.logger = logger
	}
}

// WithEncoding overrides the payload encoding announced on channel open.
func WithEncoding(encoding string) EndpointOption {
	return func(ep *Endpoint) {
		if encoding != "" {
			ep.encoding = encoding
		}
	}
}

// NewEndpoint wraps an open multiplex session.
func NewEndpoint(sess multiplex.Session, cbs ...EndpointOption) *Endpoint {
	ep := &Endpoint{
		id:        xid.New().String(),
		sess:      sess,
		encoding:  EncodingJSON,
		logger:    zerolog.Nop(),
		closeChan: make(chan struct{}),
	}
	for _, cb := range cbs {
		cb(ep)
	}
	go ep.watch()
	return ep
}

func (ep *Endpoint) ID() string {
	return ep.id
}

// Done closes once the endpoint, or the transport session under it, is gone.
func (ep *Endpoint) Done() <-chan struct{} {
	return ep.closeChan
}

// Close tears down the endpoint and its transport session. Idempotent.
func (ep *Endpoint) Close() error {
	if !atomic.CompareAndSwapInt32(&ep.closeFlag, 0, 1) {
		return nil
	}
	close(ep.closeChan)
	return ep.sess.Close()
}

func (ep *Endpoint) watch() {
	select {
	case <-ep.sess.CloseChan():
		_ = ep.Close()
	case <-ep.closeChan:
	}
}

// OpenInitiator opens a stream and claims the named channel on it.
func (ep *Endpoint) OpenInitiator(ctx context.Context, name string) (Channel, error) {
	stream, err := ep.sess.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	release := ep.interruptOnDone(ctx, stream)
	defer release()
	reply, err := packet.SendRecv(stream, packet.NewFrame(
		packet.TypeChannelOpen,
		sequence.Next(),
		&packet.ChannelOpenRequest{Name: name, Encoding: ep.encoding},
	))
	if err != nil {
		_ = stream.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	res := &packet.ChannelOpenResponse{}
	if err = reply.Decode(res); err != nil {
		_ = stream.Close()
		return nil, err
	}
	if reply.Type != packet.TypeChannelAccept || !res.Success {
		_ = stream.Close()
		return nil, fmt.Errorf("channel %s rejected: %s", name, res.Reason)
	}
	return newMuxChannel(name, stream), nil
}

// OpenAcceptor waits for the peer to claim the named channel, rejecting
// streams that ask for anything else.
func (ep *Endpoint) OpenAcceptor(ctx context.Context, name string) (Channel, error) {
	for {
		stream, err := ep.sess.AcceptStream(ctx)
		if err != nil {
			return nil, err
		}
		release := ep.interruptOnDone(ctx, stream)
		frame, err := packet.ReadFrame(stream)
		release()
		if err != nil {
			_ = stream.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		req := &packet.ChannelOpenRequest{}
		if frame.Type != packet.TypeChannelOpen || frame.Decode(req) != nil {
			ep.logger.Debug().Uint8("type", frame.Type).Msg("discarding stream without channel-open")
			_ = stream.Close()
			continue
		}
		if req.Name != name {
			_ = packet.WriteFrame(stream, packet.NewFrame(packet.TypeChannelReject, frame.Sequence,
				&packet.ChannelOpenResponse{Name: req.Name, Reason: "unknown channel"}))
			_ = stream.Close()
			continue
		}
		if err = packet.WriteFrame(stream, packet.NewFrame(packet.TypeChannelAccept, frame.Sequence,
			&packet.ChannelOpenResponse{Name: name, Success: true})); err != nil {
			_ = stream.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		return newMuxChannel(name, stream), nil
	}
}

// interruptOnDone closes the stream when ctx expires, unblocking reads that
// the transport cannot cancel by itself. The returned release func stops the
// watcher.
func (ep *Endpoint) interruptOnDone(ctx context.Context, stream multiplex.Stream) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-done:
		}
	}()
	return func() {
		close(done)
	}
}
