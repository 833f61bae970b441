package pulse

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/uole/pulse/pkg/packet"
)

// readLoop interprets inbound frames on the open channel. Heartbeat requests
// are acknowledged immediately; acknowledgments re-arm the monitor. Any other
// frame type is ignored. A read error outside of teardown is fatal.
func (sess *Session) readLoop(ch Channel) {
	var (
		err   error
		frame *packet.Frame
	)
	for {
		if frame, err = ch.Read(); err != nil {
			if sess.ctx.Err() != nil || atomic.LoadInt32(&sess.closeFlag) == 1 {
				return
			}
			sess.performDisconnect(fmt.Errorf("%w: %v", ErrStreamClosed, err))
			return
		}
		switch frame.Type {
		case packet.TypePing:
			sess.handlePing(ch, frame)
		case packet.TypePong:
			sess.handlePong(ch)
		default:
			sess.logger.Debug().Uint8("type", frame.Type).Msg("ignoring frame")
		}
	}
}

func (sess *Session) handlePing(ch Channel, request *packet.Frame) {
	sess.monitor.Reset()
	if err := sess.writeFrame(ch, packet.TypePong, &packet.PongResponse{Timestamp: time.Now().Unix()}); err != nil {
		if atomic.LoadInt32(&sess.closeFlag) == 1 {
			return
		}
		sess.logger.Debug().Err(err).Uint16("sequence", request.Sequence).Msg("write pong failed")
		sess.performDisconnect(fmt.Errorf("%w: %v", ErrStreamClosed, err))
		return
	}
	sess.emit(EventPing, ch)
	sess.emit(EventPong, ch)
}

func (sess *Session) handlePong(ch Channel) {
	sess.monitor.Reset()
	sess.emit(EventPong, ch)
}
