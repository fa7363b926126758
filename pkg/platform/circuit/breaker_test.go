package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock) *Breaker {
	return New("webhook", WithFailureThreshold(3), WithCooldown(time.Minute), WithClock(clock.Now))
}

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := newTestBreaker(clock)

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.Allow())
	assert.Equal(t, "closed", b.State().String())

	// a success clears the run, so two more failures still do not open it
	b.RecordSuccess()
	b.RecordFailure()
	_, change := b.RecordFailure()
	assert.False(t, change.Opened)
	assert.True(t, b.Allow())
}

func TestBreaker_OpensOnceAndBlocksDuringCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := newTestBreaker(clock)

	b.RecordFailure()
	b.RecordFailure()
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "webhook", b.Name())

	_, change = b.RecordFailure()
	assert.False(t, change.Opened, "already open")

	clock.advance(59 * time.Second)
	assert.False(t, b.Allow())
}

func TestBreaker_FailedProbeWaitsAnotherCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}

	clock.advance(time.Minute)
	assert.True(t, b.Allow(), "first call after cooldown is a probe")
	assert.False(t, b.Allow(), "only one probe per window")

	b.RecordFailure()
	assert.True(t, b.IsOpen())
	clock.advance(30 * time.Second)
	assert.False(t, b.Allow())
	clock.advance(30 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreaker_SuccessfulProbeCloses(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := newTestBreaker(clock)
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}

	clock.advance(time.Minute)
	assert.True(t, b.Allow())
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)

	_, change = b.RecordSuccess()
	assert.False(t, change.Closed, "already closed")
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}
