package pulse

import (
	"fmt"
	"time"

	"github.com/uole/pulse/pkg/packet"
)

// pingLoop drives periodic heartbeat requests while the channel is open.
// Requests go out at half the failure window, so only two consecutive silent
// round-trips trip the monitor.
func (sess *Session) pingLoop(ch Channel) {
	ticker := time.NewTicker(sess.cfg.Interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sess.writePing(ch); err != nil {
				sess.performDisconnect(err)
				return
			}
		case <-sess.ctx.Done():
			return
		}
	}
}

func (sess *Session) writePing(ch Channel) (err error) {
	if ch.IsDestroyed() {
		return fmt.Errorf("%w: channel destroyed", ErrStreamClosed)
	}
	if err = sess.writeFrame(ch, packet.TypePing, &packet.PingRequest{Timestamp: time.Now().Unix()}); err != nil {
		return fmt.Errorf("%w: %v", ErrStreamClosed, err)
	}
	sess.emit(EventPing, ch)
	return
}
