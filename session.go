package pulse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/uole/pulse/internal/sequence"
	"github.com/uole/pulse/pkg/packet"
)

const eventBufferSize = 16

// Session binds one heartbeat protocol instance to one logical channel. It
// acquires the channel through the provider (retrying per the configured
// policy), exchanges ping/pong frames, watches for a missed heartbeat and
// funnels every failure into a single idempotent teardown path.
type Session struct {
	id         string
	role       Role
	provider   Provider
	cfg        *Config
	logger     zerolog.Logger
	policy     failurePolicy
	monitor    *heartbeatMonitor
	ctx        context.Context
	cancelFunc context.CancelFunc
	waitGroup  conc.WaitGroup
	closeFlag  int32
	attempts   int32
	mutex      sync.Mutex
	ch         Channel
	err        error
	events     chan Event
	doneChan   chan struct{}
}

// New builds a session bound to provider in the given role. The session does
// nothing until Start is called.
func New(provider Provider, role Role, cbs ...Option) *Session {
	cfg := defaultConfig()
	for _, cb := range cbs {
		cb(cfg)
	}
	sess := &Session{
		id:       xid.New().String(),
		role:     role,
		provider: provider,
		cfg:      cfg,
		events:   make(chan Event, eventBufferSize),
		doneChan: make(chan struct{}),
	}
	sess.logger = cfg.Logger.With().
		Str("session", sess.id).
		Str("channel", cfg.Channel).
		Str("role", role.String()).
		Logger()
	if cfg.OnFailure != nil {
		sess.policy = &invokePolicy{handler: cfg.OnFailure}
	} else {
		sess.policy = &propagatePolicy{}
	}
	sess.monitor = newHeartbeatMonitor(cfg.Interval, func() {
		sess.performDisconnect(ErrMissedHeartbeat)
	})
	return sess
}

// Start launches the session's sub-activities and returns immediately.
// Acquisition failures, heartbeat failures and endpoint closure all surface
// on the event feed (or the failure handler) rather than here.
func (sess *Session) Start(ctx context.Context) {
	if atomic.LoadInt32(&sess.closeFlag) == 1 {
		return
	}
	sess.ctx, sess.cancelFunc = context.WithCancel(ctx)
	sess.waitGroup.Go(sess.watchEndpoint)
	sess.waitGroup.Go(sess.run)
}

// Events returns the feed of heartbeat activity. The channel closes when the
// session reaches its terminal state; Err then reports the cause unless a
// failure handler consumed it.
func (sess *Session) Events() <-chan Event {
	return sess.events
}

// Done closes once the session has fully torn down.
func (sess *Session) Done() <-chan struct{} {
	return sess.doneChan
}

// Err returns the terminal cause after Done, or nil while the session is
// live or when a failure handler was configured.
func (sess *Session) Err() error {
	sess.mutex.Lock()
	defer sess.mutex.Unlock()
	return sess.err
}

// Cancel tears the session down with ErrCancelled. Safe to call any number
// of times, before or after the session ended on its own.
func (sess *Session) Cancel() {
	sess.performDisconnect(ErrCancelled)
}

// Attempts reports the current reconnect-attempt count. It resets to zero
// once a channel opens.
func (sess *Session) Attempts() int {
	return int(atomic.LoadInt32(&sess.attempts))
}

func (sess *Session) run() {
	ch, err := sess.acquire(sess.ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = ErrCancelled
		}
		sess.performDisconnect(err)
		return
	}
	sess.mutex.Lock()
	if atomic.LoadInt32(&sess.closeFlag) == 1 {
		sess.mutex.Unlock()
		_ = ch.Destroy()
		return
	}
	sess.ch = ch
	sess.mutex.Unlock()
	sess.logger.Info().Str("id", ch.ID()).Msg("channel open")
	// the monitor arms now, so a peer that never acknowledges anything is
	// still caught within one interval
	sess.waitGroup.Go(func() {
		sess.monitor.Watch(sess.ctx)
	})
	sess.waitGroup.Go(func() {
		sess.readLoop(ch)
	})
	if sess.role == RoleInitiator {
		sess.waitGroup.Go(func() {
			sess.pingLoop(ch)
		})
	}
}

func (sess *Session) watchEndpoint() {
	select {
	case <-sess.provider.Done():
		sess.performDisconnect(ErrEndpointClosed)
	case <-sess.ctx.Done():
		sess.performDisconnect(ErrCancelled)
	}
}

func (sess *Session) writeFrame(ch Channel, typ uint8, v any) (err error) {
	if atomic.LoadInt32(&sess.closeFlag) == 1 {
		return ErrStreamClosed
	}
	return ch.Write(packet.NewFrame(typ, sequence.Next(), v))
}

func (sess *Session) emit(kind EventKind, ch Channel) {
	sess.mutex.Lock()
	defer sess.mutex.Unlock()
	if atomic.LoadInt32(&sess.closeFlag) == 1 {
		return
	}
	select {
	case sess.events <- Event{Kind: kind, Channel: ch}:
	default:
		sess.logger.Debug().Str("kind", string(kind)).Msg("event feed full, dropping event")
	}
}
