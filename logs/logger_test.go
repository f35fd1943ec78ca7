package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, Config{Level: "warn"})
	require.NoError(t, err)

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, "k=v")
}

func TestLoggerComponentAndContexter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, Config{Format: FormatJSON}, WithContexter(RequestIDContexter))
	require.NoError(t, err)

	ctx := ContextWithRequestID(context.Background(), "abc-123")
	l.WithComponent("hello_service").Info(ctx, "greeting")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello_service", line["component"])
	assert.Equal(t, "abc-123", line["requestId"])
	assert.Equal(t, "greeting", line["msg"])
	assert.Equal(t, "info", line["level"])
}

func TestLogCall(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, Config{})
	require.NoError(t, err)

	l.LogCall(context.Background(), "Prime", time.Now(), nil, "number", 7)
	l.LogCall(context.Background(), "InvokeHello", time.Now(), errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "level=info")
	assert.Contains(t, lines[0], "method=Prime")
	assert.Contains(t, lines[0], "number=7")
	assert.Contains(t, lines[1], "level=error")
	assert.Contains(t, lines[1], "err=boom")
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, Config{Format: "xml"})
	assert.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestDebugIsDroppedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, Config{Level: "info"})
	require.NoError(t, err)

	l.Debug(context.Background(), "7 is a prime number")
	assert.Empty(t, buf.String())
}
