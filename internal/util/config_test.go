package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brew.toml")
	content := `
log_level = "debug"
log_file = "/tmp/brew.log"
debug_ast = true
max_call_depth = 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config := Configuration{LogLevel: "error"}
	require.NoError(t, LoadConfigFile(path, &config))

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "/tmp/brew.log", config.LogFile)
	assert.True(t, config.DebugAST)
	assert.Equal(t, 1000, config.MaxCallDepth)
}

func TestLoadConfigFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brew.toml")
	require.NoError(t, os.WriteFile(path, []byte(`max_call_depth = 64`), 0o644))

	config := Configuration{LogLevel: "warn"}
	require.NoError(t, LoadConfigFile(path, &config))

	// keys absent from the file keep their prior values
	assert.Equal(t, "warn", config.LogLevel)
	assert.Equal(t, 64, config.MaxCallDepth)
}

func TestLoadConfigFileEmptyPathIsNoop(t *testing.T) {
	config := Configuration{LogLevel: "info"}
	require.NoError(t, LoadConfigFile("", &config))
	assert.Equal(t, "info", config.LogLevel)
}

func TestLoadConfigFileMissing(t *testing.T) {
	config := Configuration{}
	err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml"), &config)
	assert.Error(t, err)
}

func TestLoadConfigFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = [unclosed`), 0o644))

	config := Configuration{}
	assert.Error(t, LoadConfigFile(path, &config))
}
