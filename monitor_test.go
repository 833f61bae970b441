package pulse

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeatMonitor_ExpiresOnce(t *testing.T) {
	var fired int32
	m := newHeartbeatMonitor(time.Millisecond*50, func() {
		atomic.AddInt32(&fired, 1)
	})
	done := make(chan struct{})
	go func() {
		m.Watch(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not expire")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestHeartbeatMonitor_ResetPostponesExpiry(t *testing.T) {
	var fired int32
	m := newHeartbeatMonitor(time.Millisecond*80, func() {
		atomic.AddInt32(&fired, 1)
	})
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go m.Watch(ctx)

	// keep resetting at half the window; the deadline must never elapse
	for i := 0; i < 6; i++ {
		time.Sleep(time.Millisecond * 40)
		m.Reset()
	}
	assert.Zero(t, atomic.LoadInt32(&fired))

	// stop resetting; now it must fire
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, time.Millisecond*10)
}

func TestHeartbeatMonitor_DisposedByContext(t *testing.T) {
	var fired int32
	m := newHeartbeatMonitor(time.Millisecond*30, func() {
		atomic.AddInt32(&fired, 1)
	})
	ctx, cancelFunc := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Watch(ctx)
		close(done)
	}()
	cancelFunc()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancellation")
	}
	time.Sleep(time.Millisecond * 60)
	assert.Zero(t, atomic.LoadInt32(&fired), "expiry is suppressed once teardown has begun")
}
