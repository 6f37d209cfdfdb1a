package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
)

func TestSetup_Local(t *testing.T) {
	var buf bytes.Buffer

	log := setup(&buf, EnvLocal)
	log.Debug("dbg", sl.Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "error=boom")
}

func TestSetup_ProdIsJSONAndSkipsDebug(t *testing.T) {
	var buf bytes.Buffer

	log := setup(&buf, EnvProd)
	log.Debug("hidden")
	log.Info("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestSetup_UnknownEnvFallsBackToProd(t *testing.T) {
	var buf bytes.Buffer

	log := setup(&buf, "staging")
	require.NotNil(t, log)

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}
