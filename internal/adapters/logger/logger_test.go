package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestLogger_PrettyOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)

	lg.Info("loading project")
	lg.Warn("import file missing")

	assert.Contains(t, buf.String(), "loading project")
	assert.Contains(t, buf.String(), "! import file missing")
}

func TestLogger_ErrorChain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)

	lg.Error(zerr.Wrap(errors.New("disk full"), "failed to write output"))

	out := buf.String()
	assert.Contains(t, out, "Error: failed to write output")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ disk full")
}

func TestLogger_NilError(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)

	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSONMode(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	lg.SetJSON(true)

	lg.Error(errors.New("boom"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "boom", record["error"])
}
