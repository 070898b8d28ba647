package sdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestHatDirection(t *testing.T) {
	tests := []struct {
		name string
		v    byte
		x, y int
	}{
		{"centered", sdl.HAT_CENTERED, 0, 0},
		{"up", sdl.HAT_UP, 0, -1},
		{"down", sdl.HAT_DOWN, 0, 1},
		{"left", sdl.HAT_LEFT, -1, 0},
		{"right up", sdl.HAT_RIGHTUP, 1, -1},
		{"left down", sdl.HAT_LEFTDOWN, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := hatDirection(tt.v)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}
