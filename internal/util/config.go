package util

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	Version      string
	BuildDate    string
	Commit       string
	BrewHome     string
	DebugAST     bool   `toml:"debug_ast"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	MaxCallDepth int    `toml:"max_call_depth"`
}

// LoadConfigFile merges values from a TOML file into config. Flags parsed
// after the merge keep precedence over file values; missing file is an error
// only when the path was given explicitly.
func LoadConfigFile(path string, config *Configuration) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	slog.Debug("configuration file loaded", slog.String("path", path))
	return nil
}
