package log

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestColorHandler_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	h := &colorHandler{w: &buf, level: LevelTrace}
	logger := slog.New(h).With("side", "left")

	logger.Log(context.Background(), LevelTrace, "pin write", "pin", 17)

	line := buf.String()
	assert.NotContains(t, line, "\033[")
	assert.Contains(t, line, "TRACE pin write side=left pin=17")
}

func TestLevelFilter_SplitsByLevel(t *testing.T) {
	var low, high bytes.Buffer
	h := MultiHandler{hs: []slog.Handler{
		LevelFilter{pass: func(l slog.Level) bool { return l < slog.LevelError }, h: &colorHandler{w: &low, level: slog.LevelInfo}},
		LevelFilter{pass: func(l slog.Level) bool { return l >= slog.LevelError }, h: &colorHandler{w: &high, level: slog.LevelError}},
	}}
	logger := slog.New(h)

	logger.Info("hello")
	logger.Debug("hidden")
	logger.Error("boom")

	assert.Contains(t, low.String(), "hello")
	assert.NotContains(t, low.String(), "hidden")
	assert.NotContains(t, low.String(), "boom")
	assert.Contains(t, high.String(), "boom")
	assert.NotContains(t, high.String(), "hello")
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	r := NewRaw(&buf)
	r.Log(true, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 36), Port: 5001}, []byte(`{"timestamp":1}`))
	r.Log(false, nil, []byte("x"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `-> 10.0.0.36:5001 15 {"timestamp":1}`)
	assert.Contains(t, lines[1], "<- ? 1 x")

	NewRaw(nil).Log(true, nil, []byte("discarded"))
}
