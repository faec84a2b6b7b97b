package logs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")

	logger, err := New("info", path)
	require.NoError(t, err)

	logger.Debugw("hidden")
	logger.Infow("message stored", "user", "ahad")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "message stored", entry["msg"])
	assert.Equal(t, "ahad", entry["user"])
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}
