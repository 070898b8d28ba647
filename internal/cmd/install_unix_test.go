//go:build !windows

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderUnit(t *testing.T) {
	unit := renderUnit("/usr/local/bin/padlink", "receive", false)
	assert.Contains(t, unit, "Description=padlink receive\n")
	assert.Contains(t, unit, "ExecStart=\"/usr/local/bin/padlink\" receive\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target\n")

	unit = renderUnit("/home/pi/padlink", "send", true)
	assert.Contains(t, unit, "WantedBy=default.target\n")
}
