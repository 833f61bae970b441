package pulse

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	retry "github.com/avast/retry-go"
)

// acquire obtains the session's channel from the provider, bounding each
// attempt with the connection timeout and retrying at a fixed delay until
// the configured attempt count is used up. The attempt counter resets when a
// channel opens, so a recovered session carries no penalty from past
// failures.
func (sess *Session) acquire(ctx context.Context) (ch Channel, err error) {
	open := sess.provider.OpenInitiator
	if sess.role == RoleAcceptor {
		open = sess.provider.OpenAcceptor
	}
	err = retry.Do(
		func() error {
			attemptCtx, cancelFunc := context.WithTimeout(ctx, sess.cfg.ConnectionTimeout)
			defer cancelFunc()
			c, aerr := open(attemptCtx, sess.cfg.Channel)
			if aerr != nil {
				if errors.Is(aerr, context.DeadlineExceeded) && ctx.Err() == nil {
					aerr = ErrAcquisitionTimeout
				}
				return aerr
			}
			ch = c
			return nil
		},
		retry.Attempts(uint(sess.cfg.ReconnectAttempts)+1),
		retry.Delay(sess.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			atomic.StoreInt32(&sess.attempts, int32(n)+1)
			sess.logger.Warn().Uint("attempt", n+1).Err(err).Msg("channel acquisition failed, retrying")
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrAcquisitionExhausted, err)
	}
	atomic.StoreInt32(&sess.attempts, 0)
	return ch, nil
}
