// Package config loads toolchain configuration from a TOML file,
// providing the sizing limits and trace/IO options that the CLI
// otherwise has to pass as flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the tunable limits and IO/trace settings for a
// compile-and-run invocation.
type Config struct {
	// Limits mirror spec.md §6's recommended sizes.
	Limits struct {
		MaxCode         int `toml:"max_code"`
		MaxStack        int `toml:"max_stack"`
		MaxIdentLen     int `toml:"max_ident_len"`
		MaxNumberDigits int `toml:"max_number_digits"`
	} `toml:"limits"`

	Trace struct {
		EnableCodeListing bool   `toml:"enable_code_listing"`
		EnableExecTrace   bool   `toml:"enable_exec_trace"`
		OutputFile        string `toml:"output_file"`
	} `toml:"trace"`

	IO struct {
		InputFile  string `toml:"input_file"`
		OutputFile string `toml:"output_file"`
	} `toml:"io"`
}

// DefaultConfig returns the recommended sizes from spec.md §6: a
// 500-entry code memory, a 2000-cell stack, 11-character identifiers,
// 5-digit numbers.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Limits.MaxCode = 500
	cfg.Limits.MaxStack = 2000
	cfg.Limits.MaxIdentLen = 11
	cfg.Limits.MaxNumberDigits = 5
	cfg.Trace.EnableCodeListing = false
	cfg.Trace.EnableExecTrace = false
	return cfg
}

// GetConfigPath returns the platform-specific default config file
// path, creating its containing directory if necessary.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "pl0c")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "pl0c.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "pl0c")

	default:
		return "pl0c.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "pl0c.toml"
	}

	return filepath.Join(configDir, "pl0c.toml")
}

// Load loads configuration from the default config file, falling
// back to DefaultConfig if the file does not exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, returning DefaultConfig
// unchanged if the file is absent.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveTo writes cfg to path in TOML form, creating the containing
// directory if necessary.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-supplied config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
