package pulse

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uole/pulse/internal/sequence"
	"github.com/uole/pulse/pkg/packet"
)

// pipeChannel is an in-memory Channel pair: frames written on one side show
// up on the other. Destroying either side fails reads on both, like closing
// a multiplexed stream does.
type pipeChannel struct {
	name      string
	mu        sync.Mutex
	destroyed bool
	in        chan *packet.Frame
	peer      *pipeChannel
	writes    int32
	destroys  int32
}

func newChannelPair(name string) (*pipeChannel, *pipeChannel) {
	a := &pipeChannel{name: name, in: make(chan *packet.Frame, 64)}
	b := &pipeChannel{name: name, in: make(chan *packet.Frame, 64)}
	a.peer, b.peer = b, a
	return a, b
}

func (ch *pipeChannel) ID() string {
	return ch.name
}

func (ch *pipeChannel) Write(f *packet.Frame) error {
	ch.mu.Lock()
	if ch.destroyed {
		ch.mu.Unlock()
		return io.ErrClosedPipe
	}
	atomic.AddInt32(&ch.writes, 1)
	peer := ch.peer
	ch.mu.Unlock()
	return peer.deliver(f)
}

func (ch *pipeChannel) deliver(f *packet.Frame) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.destroyed {
		return io.ErrClosedPipe
	}
	select {
	case ch.in <- f:
		return nil
	default:
		return io.ErrShortWrite
	}
}

func (ch *pipeChannel) Read() (*packet.Frame, error) {
	f, ok := <-ch.in
	if !ok {
		return nil, io.EOF
	}
	return f, nil
}

func (ch *pipeChannel) IsDestroyed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.destroyed
}

func (ch *pipeChannel) Destroy() error {
	ch.mu.Lock()
	if ch.destroyed {
		ch.mu.Unlock()
		return nil
	}
	ch.destroyed = true
	close(ch.in)
	peer := ch.peer
	ch.mu.Unlock()
	atomic.AddInt32(&ch.destroys, 1)
	if peer != nil {
		peer.closeFromPeer()
	}
	return nil
}

func (ch *pipeChannel) closeFromPeer() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.destroyed {
		return
	}
	ch.destroyed = true
	close(ch.in)
}

func (ch *pipeChannel) writeCount() int32 {
	return atomic.LoadInt32(&ch.writes)
}

// chIsNil reports whether the session has bound a channel yet.
func (sess *Session) chIsNil() bool {
	sess.mutex.Lock()
	defer sess.mutex.Unlock()
	return sess.ch == nil
}

// fakeProvider scripts channel acquisition for tests.
type fakeProvider struct {
	openFn func(ctx context.Context, name string) (Channel, error)
	done   chan struct{}
	calls  int32
}

func newFakeProvider(openFn func(ctx context.Context, name string) (Channel, error)) *fakeProvider {
	return &fakeProvider{openFn: openFn, done: make(chan struct{})}
}

// providerFor yields the given channel on first open.
func providerFor(ch Channel) *fakeProvider {
	return newFakeProvider(func(ctx context.Context, name string) (Channel, error) {
		return ch, nil
	})
}

func (p *fakeProvider) OpenInitiator(ctx context.Context, name string) (Channel, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.openFn(ctx, name)
}

func (p *fakeProvider) OpenAcceptor(ctx context.Context, name string) (Channel, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.openFn(ctx, name)
}

func (p *fakeProvider) Done() <-chan struct{} {
	return p.done
}

func (p *fakeProvider) callCount() int32 {
	return atomic.LoadInt32(&p.calls)
}

// respond answers every heartbeat request on ch with an acknowledgment,
// emulating a healthy acceptor peer.
func respond(ch *pipeChannel) {
	go func() {
		for {
			f, err := ch.Read()
			if err != nil {
				return
			}
			if f.Type == packet.TypePing {
				_ = ch.Write(packet.NewFrame(packet.TypePong, f.Sequence, &packet.PongResponse{Timestamp: time.Now().Unix()}))
			}
		}
	}()
}

// ping writes one heartbeat request on ch, emulating an initiator peer.
func ping(ch *pipeChannel) error {
	return ch.Write(packet.NewFrame(packet.TypePing, sequence.Next(), &packet.PingRequest{Timestamp: time.Now().Unix()}))
}
