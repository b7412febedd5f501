package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"rfm-insights/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Int("rows", 3).Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "console")
	require.NoError(t, err)
	l.Debug().Str("table", "transactions").Msg("loaded")
	assert.Contains(t, buf.String(), "loaded")
	assert.Contains(t, buf.String(), "transactions")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "json")
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}
