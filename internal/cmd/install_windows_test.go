//go:build windows

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAutorunEntry(t *testing.T) {
	tests := []struct {
		in   string
		want autorunEntry
		ok   bool
	}{
		{`"C:\Program Files\padlink\padlink.exe" receive`, autorunEntry{Exe: `C:\Program Files\padlink\padlink.exe`, Mode: "receive"}, true},
		{`C:\padlink.exe send`, autorunEntry{Exe: `C:\padlink.exe`, Mode: "send"}, true},
		{`C:\padlink.exe`, autorunEntry{Exe: `C:\padlink.exe`}, true},
		{`"C:\padlink.exe`, autorunEntry{}, false},
		{"   ", autorunEntry{}, false},
	}
	for _, tt := range tests {
		got, ok := parseAutorunEntry(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAutorunEntryRoundTrip(t *testing.T) {
	e := autorunEntry{Exe: `C:\Program Files\padlink\padlink.exe`, Mode: "send"}
	got, ok := parseAutorunEntry(e.String())
	assert.True(t, ok)
	assert.Equal(t, e, got)
}
