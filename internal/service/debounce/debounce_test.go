package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const window = 300 * time.Millisecond

func TestTrigger_CollapsesBurst(t *testing.T) {
	clock := NewFakeScheduler()

	var cartSize int
	type call struct {
		at   time.Duration
		cart int
	}
	var calls []call

	trig := NewTrigger(clock, window, func() {
		calls = append(calls, call{at: clock.Now(), cart: cartSize})
	})

	for i := 0; i < 4; i++ {
		if i > 0 {
			clock.Advance(50 * time.Millisecond)
		}
		cartSize++
		trig.Notify()
	}
	require.Equal(t, 150*time.Millisecond, clock.Now())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(299 * time.Millisecond)
	assert.Empty(t, calls)

	clock.Advance(time.Second)
	require.Len(t, calls, 1)
	assert.Equal(t, 450*time.Millisecond, calls[0].at)
	assert.Equal(t, 4, calls[0].cart)
	assert.False(t, trig.Pending())
}

func TestTrigger_SeparateBurstsFireSeparately(t *testing.T) {
	clock := NewFakeScheduler()
	var fired []time.Duration
	trig := NewTrigger(clock, window, func() { fired = append(fired, clock.Now()) })

	trig.Notify()
	clock.Advance(400 * time.Millisecond)
	trig.Notify()
	clock.Advance(100 * time.Millisecond)
	trig.Notify()
	clock.Advance(time.Second)

	assert.Equal(t, []time.Duration{300 * time.Millisecond, 800 * time.Millisecond}, fired)
}

func TestTrigger_CancelAndClose(t *testing.T) {
	clock := NewFakeScheduler()
	var n int
	trig := NewTrigger(clock, window, func() { n++ })

	trig.Notify()
	trig.Cancel()
	clock.Advance(time.Second)
	assert.Zero(t, n)
	assert.Zero(t, clock.Pending())

	trig.Notify()
	trig.Close()
	trig.Notify()
	clock.Advance(time.Second)
	assert.Zero(t, n)
}

func TestTrigger_StaleFireIsIgnored(t *testing.T) {
	clock := NewFakeScheduler()
	var n int
	trig := NewTrigger(clock, window, func() { n++ })

	trig.Notify()
	trig.mu.Lock()
	stale := trig.seq
	trig.mu.Unlock()

	trig.Notify()
	// a timer that raced past Stop must not run the action
	trig.fire(stale)
	assert.Zero(t, n)

	clock.Advance(window)
	assert.Equal(t, 1, n)
}

func TestTrigger_RealScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	var n atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	trig := NewTrigger(RealScheduler(), 20*time.Millisecond, func() {
		n.Add(1)
		wg.Done()
	})
	for i := 0; i < 5; i++ {
		trig.Notify()
	}

	wg.Wait()
	trig.Close()
	assert.EqualValues(t, 1, n.Load())
}
