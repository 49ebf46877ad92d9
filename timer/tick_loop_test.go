package timer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInterval = time.Second / 60

func startLoop(t *testing.T, loop *TickLoop, clock *clockwork.FakeClock) (context.CancelFunc, chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1), "ticker was never created")
	return cancel, done
}

func TestTickLoopCallsOncePerInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var count int32
	loop := NewTickLoop("test", clock, testInterval, func() { atomic.AddInt32(&count, 1) }, nil)
	cancel, done := startLoop(t, loop, clock)

	for i := 1; i <= 5; i++ {
		clock.Advance(testInterval)
		expected := int32(i)
		require.Eventually(t, func() bool { return atomic.LoadInt32(&count) == expected },
			time.Second, time.Millisecond)
	}
	assert.Equal(t, uint64(5), loop.Ticks())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("tick loop did not stop")
	}
}

func TestTickLoopNoTickBeforeInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var count int32
	loop := NewTickLoop("test", clock, testInterval, func() { atomic.AddInt32(&count, 1) }, nil)
	cancel, done := startLoop(t, loop, clock)
	defer func() {
		cancel()
		<-done
	}()

	clock.Advance(testInterval / 2)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

func TestTickLoopStopsOnPanic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var crashed interface{}
	loop := NewTickLoop("test", clock, testInterval, func() { panic("bad rank: 1") }, func(r interface{}) { crashed = r })
	cancel, done := startLoop(t, loop, clock)
	defer cancel()

	clock.Advance(testInterval)
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad rank: 1")
	case <-time.After(2 * time.Second):
		t.Fatal("tick loop did not return after panic")
	}
	assert.Equal(t, "bad rank: 1", crashed)
}

func TestTickLoopRejectsBadInterval(t *testing.T) {
	loop := NewTickLoop("test", clockwork.NewFakeClock(), 0, func() {}, nil)
	assert.Error(t, loop.Run(context.Background()))
}
