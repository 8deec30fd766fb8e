// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfig names a config file to use instead of the standard locations.
	EnvConfig = "WEATHER_HARVESTER_CONFIG"
	// FileName is looked for in the standard locations.
	FileName = "weather-harvester.yaml"
	// DefaultProfile is used when no --profile is given.
	DefaultProfile = "default"
)

var (
	ErrNotFound          = errors.New("config file not found")
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	ErrProfileNotFound   = errors.New("profile not found")
)

// Type is a loaded config document. Namespace, when set, is the profile
// consulted before the top level.
type Type struct {
	Source    string
	Namespace string
	Data      map[string]any
}

// Path resolves the config file to use: explicit, else EnvConfig, else
// FileName in XDG_CONFIG_HOME, APPDATA or HOME. ErrNotFound is returned when
// nothing was named and nothing exists in the standard locations.
func Path(explicit string) (string, error) {
	if explicit != "" {
		return checkFile(explicit)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return checkFile(env)
	}

	candidates := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			log.Debugf("using config file: %s", file)
			return file, nil
		}
	}
	return "", fmt.Errorf("%w in standard locations", ErrNotFound)
}

func checkFile(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("config path points to a directory: %s", path)
	}
	return path, nil
}

// Load reads path. YAML and JSON documents are accepted; JSON goes through
// the YAML decoder.
func Load(path string) (Type, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return Type{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Type{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Type{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return Type{Source: path, Data: data}, nil
}

// WithNamespace returns a copy of cfg that consults profile ns first.
func (cfg Type) WithNamespace(ns string) Type {
	cfg.Namespace = ns
	return cfg
}

// HasProfile reports whether the document has a section named ns.
func (cfg Type) HasProfile(ns string) bool {
	_, ok := cfg.Data[ns].(map[string]any)
	return ok
}

// Get traverses the document using a dotted key path, first under the
// namespace and then from the top level.
func (cfg Type) Get(kspec string) (any, bool) {
	candidates := []string{kspec}
	if cfg.Namespace != "" {
		candidates = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidates {
		var current any = cfg.Data
		found := true
		for _, part := range strings.Split(key, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				found = false
				break
			}
			if current, ok = m[part]; !ok {
				found = false
				break
			}
		}
		if found {
			return current, true
		}
	}
	return nil, false
}

// GetString returns the string at key, or defaultValue when key is missing.
func (cfg Type) GetString(key string, defaultValue ...string) (string, error) {
	val, ok := cfg.Get(key)
	if !ok {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", fmt.Errorf("key not found: %s", key)
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", key)
	}
	return s, nil
}

// GetInt returns the integer at key, or defaultValue when key is missing.
func (cfg Type) GetInt(key string, defaultValue ...int) (int, error) {
	val, ok := cfg.Get(key)
	if !ok {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, fmt.Errorf("key not found: %s", key)
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("value at %s is not an int", key)
	}
}

// Flatten returns the effective scalar settings for the namespace: top level
// values overlaid with the profile's. Other profile sections are dropped.
func (cfg Type) Flatten() (map[string]any, error) {
	out := map[string]any{}
	for k, v := range cfg.Data {
		if _, isSection := v.(map[string]any); isSection {
			continue
		}
		out[k] = v
	}

	if cfg.Namespace == "" {
		return out, nil
	}
	profile, ok := cfg.Data[cfg.Namespace].(map[string]any)
	if !ok {
		if cfg.Namespace == DefaultProfile {
			return out, nil
		}
		return nil, fmt.Errorf("%w: %q in %s", ErrProfileNotFound, cfg.Namespace, cfg.Source)
	}
	for k, v := range profile {
		out[k] = v
	}
	return out, nil
}
