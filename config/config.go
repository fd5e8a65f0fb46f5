package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional garchive configuration file.
type Config struct {
	Gzip GzipConfig `toml:"gzip"`
	XZ   XZConfig   `toml:"xz"`
	Test TestConfig `toml:"test"`
}

// GzipConfig holds defaults for gz compress.
type GzipConfig struct {
	OSType    *string `toml:"os_type"`
	HeaderCRC *bool   `toml:"header_crc"`
}

// XZConfig holds defaults for xz compress.
type XZConfig struct {
	Check     *string `toml:"check"`
	DictSize  *uint32 `toml:"dict_size"`
	BlockSize *int    `toml:"block_size"`
}

// TestConfig holds defaults for the test command.
type TestConfig struct {
	Workers *int `toml:"workers"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "garchive", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadFile reads the config file at path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
