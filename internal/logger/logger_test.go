package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, int(slog.LevelInfo))

	l.Info("login", "username", "alice", "password", "hunter2")
	l.With("token", "abc.def.ghi").Info("request")

	out := buf.String()
	assert.Contains(t, out, "username=alice")
	assert.Contains(t, out, "password=********")
	assert.Contains(t, out, "token=********")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "abc.def.ghi")
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, int(slog.LevelWarn))

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
