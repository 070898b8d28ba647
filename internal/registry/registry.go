// Package registry links every input and GPIO backend into the binary.
package registry

import (
	_ "github.com/Alia5/padlink/internal/actuator/embd"
	_ "github.com/Alia5/padlink/internal/actuator/sim"
	_ "github.com/Alia5/padlink/internal/input/joystick"
	_ "github.com/Alia5/padlink/internal/input/sdl"
)
