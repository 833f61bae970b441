package pulse

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type (
	// failurePolicy decides how a terminal cause reaches the caller: surfaced
	// on the event feed, or handed to a caller-supplied handler.
	failurePolicy interface {
		apply(sess *Session, cause error)
	}

	propagatePolicy struct{}

	invokePolicy struct {
		handler func(cause error)
	}
)

// performDisconnect is the single teardown path for every failure cause and
// for caller cancellation. The first call wins; every later call, from any
// concurrently-failing sub-activity, is a no-op. It stops the timers and
// subscriptions through the session context, destroys the channel if still
// open, applies the failure policy and completes the session lifecycle.
func (sess *Session) performDisconnect(cause error) {
	if !atomic.CompareAndSwapInt32(&sess.closeFlag, 0, 1) {
		sess.logger.Debug().Err(cause).Msg("already disconnected")
		return
	}
	sess.logger.Info().Err(cause).Msg("disconnecting")
	if sess.cancelFunc != nil {
		sess.cancelFunc()
	}
	sess.mutex.Lock()
	ch := sess.ch
	sess.ch = nil
	sess.mutex.Unlock()
	if ch != nil && !ch.IsDestroyed() {
		if err := ch.Destroy(); err != nil {
			sess.logger.Debug().Err(err).Msg("destroy channel failed")
		}
	}
	sess.policy.apply(sess, cause)
	sess.mutex.Lock()
	close(sess.events)
	sess.mutex.Unlock()
	close(sess.doneChan)
}

func (p *propagatePolicy) apply(sess *Session, cause error) {
	sess.mutex.Lock()
	sess.err = cause
	sess.mutex.Unlock()
}

// apply invokes the caller's handler with the cause. A panicking handler is
// contained here; it must never take the session's teardown down with it.
func (p *invokePolicy) apply(sess *Session, cause error) {
	defer func(logger zerolog.Logger) {
		if r := recover(); r != nil {
			logger.Error().Err(fmt.Errorf("%v", r)).Msg("failure handler panicked")
		}
	}(sess.logger)
	p.handler(cause)
}
