package embd

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePin struct {
	mu     sync.Mutex
	writes []int
}

func (p *fakePin) Write(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, v)
	return nil
}

func (p *fakePin) snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.writes...)
}

func (p *fakePin) last() int {
	w := p.snapshot()
	if len(w) == 0 {
		return -1
	}
	return w[len(w)-1]
}

func TestSoftPWM_ZeroHoldsLow(t *testing.T) {
	pin := &fakePin{}
	pwm := newSoftPWM(pin, 100, slog.Default())
	require.NoError(t, pwm.Start(0))

	require.Eventually(t, func() bool { return len(pin.snapshot()) >= 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []int{0}, pin.snapshot())

	require.NoError(t, pwm.Stop())
	assert.Equal(t, 0, pin.last())
}

func TestSoftPWM_FullHoldsHigh(t *testing.T) {
	pin := &fakePin{}
	pwm := newSoftPWM(pin, 100, slog.Default())
	require.NoError(t, pwm.Start(0))
	require.NoError(t, pwm.SetDuty(100))

	require.Eventually(t, func() bool { return pin.last() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, pwm.Stop())
	assert.Equal(t, 0, pin.last())
}

func TestSoftPWM_Toggles(t *testing.T) {
	pin := &fakePin{}
	pwm := newSoftPWM(pin, 500, slog.Default())
	require.NoError(t, pwm.Start(50))

	require.Eventually(t, func() bool { return len(pin.snapshot()) >= 6 }, time.Second, time.Millisecond)
	require.NoError(t, pwm.Stop())

	w := pin.snapshot()
	assert.Contains(t, w, 0)
	assert.Contains(t, w, 1)
	assert.Equal(t, 0, w[len(w)-1])
}

func TestSoftPWM_StopTwice(t *testing.T) {
	pwm := newSoftPWM(&fakePin{}, 100, slog.Default())
	require.NoError(t, pwm.Start(10))
	assert.NoError(t, pwm.Stop())
	assert.NoError(t, pwm.Stop())
	assert.Error(t, pwm.SetDuty(20))
}

func TestSoftPWM_SetDutyZeroDropsPinBeforeReturning(t *testing.T) {
	pin := &fakePin{}
	// 500 ms period, so the on-phase is far from over when the duty drops.
	pwm := newSoftPWM(pin, 2, slog.Default())
	require.NoError(t, pwm.Start(90))
	t.Cleanup(func() { _ = pwm.Stop() })

	require.Eventually(t, func() bool { return pin.last() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, pwm.SetDuty(0))
	assert.Equal(t, 0, pin.last(), "pin must be low once SetDuty(0) returns")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, pin.last())
}

func TestSoftPWM_SetDutyCutsPeriodShort(t *testing.T) {
	pin := &fakePin{}
	pwm := newSoftPWM(pin, 1, slog.Default())
	require.NoError(t, pwm.Start(50))
	t.Cleanup(func() { _ = pwm.Stop() })
	require.Eventually(t, func() bool { return pin.last() == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, pwm.SetDuty(100))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, 1, pin.last())

	require.NoError(t, pwm.SetDuty(0))
	assert.Equal(t, 0, pin.last())
}
