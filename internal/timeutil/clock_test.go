package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	c.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, c.Since(start), time.Millisecond)
}

func TestMockClock(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewMockClock(t0)
	assert.Equal(t, t0, c.Now())

	c.Advance(2 * time.Second)
	assert.Equal(t, 2*time.Second, c.Since(t0))

	c.Sleep(time.Second)
	c.Sleep(500 * time.Millisecond)
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, c.Sleeps())
	assert.Equal(t, t0.Add(3500*time.Millisecond), c.Now())

	c.Set(t0)
	assert.Equal(t, t0, c.Now())
}
