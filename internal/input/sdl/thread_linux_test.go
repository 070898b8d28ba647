package sdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOSThread_StaysOnOneThread(t *testing.T) {
	th := startOSThread()
	defer th.stop()

	var first int
	require.NoError(t, th.do(func() { first = unix.Gettid() }))
	for range 20 {
		var tid int
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = th.do(func() { tid = unix.Gettid() })
		}()
		<-done
		assert.Equal(t, first, tid)
	}
}
