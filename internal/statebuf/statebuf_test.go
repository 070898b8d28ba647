package statebuf_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/padlink/internal/statebuf"
	"github.com/Alia5/padlink/pkg/controller"
)

func TestBuffer_ZeroValueReadsNeutral(t *testing.T) {
	var b statebuf.Buffer
	assert.Equal(t, controller.Snapshot{}, b.Read())
	assert.Equal(t, uint64(0), b.Updates())
}

func TestBuffer_ReadReturnsLatest(t *testing.T) {
	b := statebuf.New()
	b.Write(controller.Snapshot{LeftStick: controller.Stick{X: 0.1}})
	b.Write(controller.Snapshot{LeftStick: controller.Stick{X: 0.2}})

	assert.Equal(t, 0.2, b.Read().LeftStick.X)
	assert.Equal(t, uint64(2), b.Updates())
}

func TestBuffer_ReadIsACopy(t *testing.T) {
	b := statebuf.New()
	s := controller.Snapshot{}
	s.Buttons.Set(controller.ButtonA, true)
	b.Write(s)

	got := b.Read()
	got.Buttons.Set(controller.ButtonA, false)
	got.Triggers.Right = 1

	again := b.Read()
	assert.True(t, again.Buttons.Pressed(controller.ButtonA))
	assert.Equal(t, 0.0, again.Triggers.Right)

	s.Buttons.Set(controller.ButtonB, true)
	assert.False(t, b.Read().Buttons.Pressed(controller.ButtonB))
}

func TestBuffer_ConcurrentAccess(t *testing.T) {
	b := statebuf.New()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := float64(i) / 1000
			b.Write(controller.Snapshot{LeftStick: controller.Stick{X: v, Y: v}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s := b.Read()
			// Writes are atomic: both fields always come from the same write.
			assert.Equal(t, s.LeftStick.X, s.LeftStick.Y)
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(1000), b.Updates())
	assert.Equal(t, 0.999, b.Read().LeftStick.X)
}
