package pulse

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/uole/pulse/pkg/multiplex"
	"github.com/uole/pulse/pkg/packet"
)

// muxChannel is a Channel carried on one multiplex stream. Writes are
// serialized; Destroy closes the stream, which in turn fails any blocked
// Read on either side.
type muxChannel struct {
	name      string
	stream    multiplex.Stream
	writeMu   sync.Mutex
	closeFlag int32
}

func newMuxChannel(name string, stream multiplex.Stream) *muxChannel {
	return &muxChannel{
		name:   name,
		stream: stream,
	}
}

func (ch *muxChannel) ID() string {
	return ch.name
}

func (ch *muxChannel) Write(f *packet.Frame) error {
	if ch.IsDestroyed() {
		return io.ErrClosedPipe
	}
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return packet.WriteFrame(ch.stream, f)
}

func (ch *muxChannel) Read() (*packet.Frame, error) {
	if ch.IsDestroyed() {
		return nil, io.ErrClosedPipe
	}
	return packet.ReadFrame(ch.stream)
}

func (ch *muxChannel) IsDestroyed() bool {
	return atomic.LoadInt32(&ch.closeFlag) == 1
}

func (ch *muxChannel) Destroy() error {
	if !atomic.CompareAndSwapInt32(&ch.closeFlag, 0, 1) {
		return nil
	}
	return ch.stream.Close()
}
