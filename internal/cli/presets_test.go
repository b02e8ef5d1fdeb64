package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsText(t *testing.T) {
	out, _, err := executeCommand(t, "presets")
	require.NoError(t, err)
	for _, name := range []string{"macro-burst", "nested-micro", "render-work", "timeout-vs-promise"} {
		assert.Contains(t, out, name)
	}
}

func TestPresetsJSON(t *testing.T) {
	out, _, err := executeCommand(t, "--format", "json", "presets")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []PresetInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 4)
	assert.Equal(t, "macro-burst", resp.Data[0].Name)
	assert.NotEmpty(t, resp.Data[0].Description)
}

func TestPresetsRejectsArgs(t *testing.T) {
	_, _, err := executeCommand(t, "presets", "extra")
	require.Error(t, err)
}
