// Package config resolves where and how ChoreLedger stores its data.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/bryan-cox/choreledger/internal/store"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".choreledger.json"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigInvalid      = errors.New("invalid config file")
)

// Config holds all configuration options.
type Config struct {
	DataDir string `json:"data_dir,omitempty"`
	Backend string `json:"backend,omitempty"`

	// Sources lists the config files that were loaded, lowest precedence first.
	Sources []string `json:"-"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default(env map[string]string) Config {
	return Config{
		DataDir: defaultDataDir(env),
		Backend: store.BackendFile,
	}
}

// defaultDataDir is $XDG_DATA_HOME/choreledger, else ~/.local/share/choreledger,
// else a relative .choreledger directory.
func defaultDataDir(env map[string]string) string {
	if xdg := env["XDG_DATA_HOME"]; xdg != "" {
		return filepath.Join(xdg, "choreledger")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".local", "share", "choreledger")
	}
	return ".choreledger"
}

func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "choreledger", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "choreledger", "config.json")
	}
	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir         string            // directory searched for FileName; os.Getwd() when empty
	ConfigPath      string            // --config flag; must exist when set
	DataDirOverride string            // --data-dir flag
	BackendOverride string            // --backend flag
	Env             map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global config ($XDG_CONFIG_HOME/choreledger/config.json or ~/.config/choreledger/config.json)
// 3. Project config (.choreledger.json in the working directory, if present)
// 4. Explicit config file (--config)
// 5. Flag overrides.
func Load(in LoadInput) (Config, error) {
	workDir := in.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default(in.Env)

	if p := globalPath(in.Env); p != "" {
		if err := overlayFile(&cfg, p, false); err != nil {
			return Config{}, err
		}
	}

	if err := overlayFile(&cfg, filepath.Join(workDir, FileName), false); err != nil {
		return Config{}, err
	}

	if in.ConfigPath != "" {
		p := in.ConfigPath
		if !filepath.IsAbs(p) {
			p = filepath.Join(workDir, p)
		}
		if err := overlayFile(&cfg, p, true); err != nil {
			return Config{}, err
		}
	}

	if in.DataDirOverride != "" {
		cfg.DataDir = in.DataDirOverride
	}
	if in.BackendOverride != "" {
		cfg.Backend = in.BackendOverride
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(workDir, cfg.DataDir)
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case store.BackendFile, store.BackendSQLite, store.BackendMemory:
	default:
		return fmt.Errorf("%w: backend %q (use %s or %s)", ErrConfigInvalid, c.Backend, store.BackendFile, store.BackendSQLite)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir cannot be empty", ErrConfigInvalid)
	}
	return nil
}

// overlayFile merges the non-empty fields of the file at path into cfg.
// A missing file is skipped unless mustExist is set.
func overlayFile(cfg *Config, path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}
			return nil
		}
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	overlay, err := parse(data)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	if overlay.DataDir != "" {
		dir := overlay.DataDir
		// Relative data dirs in a file are relative to that file.
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		cfg.DataDir = dir
	}
	if overlay.Backend != "" {
		cfg.Backend = overlay.Backend
	}
	cfg.Sources = append(cfg.Sources, path)
	return nil
}

// parse accepts JSON with comments and trailing commas.
func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}
