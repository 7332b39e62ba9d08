// =============================================================================
// config.go - Shell Configuration
// =============================================================================
//
// The shell reads its settings from three places, later ones winning:
//
//  1. Built-in defaults (localhost:1234, history in ~/.infuse_history)
//  2. A YAML file, ~/.infuse.yaml by default or the path given by --config
//  3. Environment variables (INFUSE_HOST, INFUSE_PORT, LOG_*)
//
// Command-line flags are applied on top of all of these in main.go.
//
// Example ~/.infuse.yaml:
//
//	host: db.internal
//	port: 1234
//	connect_timeout: 5s
//	history_size: 1000
//	logging:
//	  level: DEBUG
//	  file_enabled: true
//	  file_path: /tmp/infuse.log
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/infusedb/infuse-cli/infuseprotocol"
	"github.com/infusedb/infuse-cli/internal/logger"
)

const (
	// configFileName is the name of the config file in the user's home
	// directory.
	configFileName = ".infuse.yaml"

	// historyFileName is the name of the history file in the user's home
	// directory.
	historyFileName = ".infuse_history"

	// historySize is the default maximum number of history entries.
	historySize = 500

	// defaultConnectTimeout bounds the dial and the version handshake.
	defaultConnectTimeout = 5 * time.Second
)

// config holds every setting the shell needs.
//
// GO CONCEPT: Struct Tags
// -----------------------
// The backquoted strings after each field are struct tags. They are
// ignored by the compiler but readable through reflection, which is how
// yaml.v3 learns that the YAML key "connect_timeout" belongs in the
// ConnectTimeout field. Fields without a tag in the file keep whatever
// value they had before decoding, so decoding onto a struct filled with
// defaults gives "defaults unless overridden" for free.
type config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	HistoryFile    string        `yaml:"history_file"`
	HistorySize    int           `yaml:"history_size"`
	Logging        logger.Config `yaml:"logging"`
}

// defaultConfig returns the built-in settings.
func defaultConfig() config {
	return config{
		Host:           infuseprotocol.DefaultHost,
		Port:           infuseprotocol.DefaultPort,
		ConnectTimeout: defaultConnectTimeout,
		HistoryFile:    filepath.Join(homeDir(), historyFileName),
		HistorySize:    historySize,
		Logging:        logger.DefaultConfig(),
	}
}

// defaultConfigPath returns ~/.infuse.yaml.
func defaultConfigPath() string {
	return filepath.Join(homeDir(), configFileName)
}

// loadConfig reads path on top of the defaults. A missing file is not an
// error; a file that exists but cannot be parsed is.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c config) applyEnv() (config, error) {
	if host := os.Getenv("INFUSE_HOST"); host != "" {
		c.Host = host
	}

	if port := os.Getenv("INFUSE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return c, fmt.Errorf("INFUSE_PORT: %w", err)
		}
		c.Port = p
	}

	c.Logging = c.Logging.ApplyEnv()
	return c, nil
}

// validate checks the settings that would otherwise only fail at dial time
// with a less helpful message.
func (c config) validate() error {
	if c.Host == "" {
		return errors.New("host must not be empty")
	}
	if c.Port < 0 || c.Port > infuseprotocol.MaxPort {
		return fmt.Errorf("port %d out of range 0-%d", c.Port, infuseprotocol.MaxPort)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout %s must not be negative", c.ConnectTimeout)
	}
	return nil
}

// homeDir returns the user's home directory, or "" if it can't be found.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
