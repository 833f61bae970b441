package pulse

import (
	"context"
	"time"
)

// heartbeatMonitor is the watchdog for heartbeat acknowledgments. It arms a
// deadline the moment Watch starts and replaces it on every Reset; if the
// deadline elapses untouched the expire callback fires exactly once and the
// monitor stops. Cancelling the context disposes the monitor without firing.
type heartbeatMonitor struct {
	interval  time.Duration
	resetChan chan struct{}
	expire    func()
}

func newHeartbeatMonitor(interval time.Duration, expire func()) *heartbeatMonitor {
	return &heartbeatMonitor{
		interval:  interval,
		resetChan: make(chan struct{}, 1),
		expire:    expire,
	}
}

// Reset replaces the pending deadline with a fresh one. Never blocks; resets
// coalesce while the watcher is busy.
func (m *heartbeatMonitor) Reset() {
	select {
	case m.resetChan <- struct{}{}:
	default:
	}
}

func (m *heartbeatMonitor) Watch(ctx context.Context) {
	timer := time.NewTimer(m.interval)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			m.expire()
			return
		case <-m.resetChan:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.interval)
		case <-ctx.Done():
			return
		}
	}
}
