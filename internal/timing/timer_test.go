package timing

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestTrack(t *testing.T) {
	var buf bytes.Buffer

	stop := Track(newLogger(&buf), "read batch")
	assert.Empty(t, buf.String())
	stop()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step finished", entry["msg"])
	assert.Equal(t, "read batch", entry["step"])
	assert.Contains(t, entry, "duration")
}

func TestMeasure_PropagatesError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")

	err := Measure(newLogger(&buf), "insert batch", func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), `"step":"insert batch"`)
}
