// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const DefaultAPIURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Settings is the typed, effective configuration for one profile. Numeric
// durations are seconds, as they are written in the config file.
type Settings struct {
	APIURL         string  `yaml:"api_url" env:"WEATHER_HARVESTER_API_URL" validate:"required,url"`
	APIKey         string  `yaml:"api_key" env:"WEATHER_HARVESTER_API_KEY" validate:"required"`
	RequestTimeout float64 `yaml:"request_timeout" env:"WEATHER_HARVESTER_REQUEST_TIMEOUT" validate:"gt=0"`
	MaxRetries     int     `yaml:"max_retries" env:"WEATHER_HARVESTER_MAX_RETRIES" validate:"gte=0"`
	RetryBackoff   float64 `yaml:"retry_backoff" env:"WEATHER_HARVESTER_RETRY_BACKOFF" validate:"gt=0"`

	CacheTTL float64 `yaml:"cache_ttl" env:"WEATHER_HARVESTER_CACHE_TTL" validate:"gt=0"`
	// CacheDir is a directory or an s3://bucket/prefix URI. Empty means the
	// platform cache directory.
	CacheDir      string `yaml:"cache_dir" env:"WEATHER_HARVESTER_CACHE_DIR"`
	CacheLocation string `yaml:"cache_location,omitempty" env:"WEATHER_HARVESTER_CACHE_LOCATION"`
	S3Region      string `yaml:"s3_region" env:"WEATHER_HARVESTER_S3_REGION"`
	S3Endpoint    string `yaml:"s3_endpoint" env:"WEATHER_HARVESTER_S3_ENDPOINT" validate:"omitempty,url"`
	S3Profile     string `yaml:"s3_profile" env:"WEATHER_HARVESTER_S3_PROFILE"`

	AlertTemperatureMin float64 `yaml:"alert_temperature_min" env:"WEATHER_HARVESTER_ALERT_TEMPERATURE_MIN"`
	AlertTemperatureMax float64 `yaml:"alert_temperature_max" env:"WEATHER_HARVESTER_ALERT_TEMPERATURE_MAX" validate:"gtefield=AlertTemperatureMin"`
	AlertHumidityMax    float64 `yaml:"alert_humidity_max" env:"WEATHER_HARVESTER_ALERT_HUMIDITY_MAX" validate:"gte=0"`
	AlertWindSpeedMax   float64 `yaml:"alert_wind_speed_max" env:"WEATHER_HARVESTER_ALERT_WIND_SPEED_MAX" validate:"gte=0"`
	AlertCooldown       float64 `yaml:"alert_cooldown" env:"WEATHER_HARVESTER_ALERT_COOLDOWN" validate:"gte=0"`

	BreakerFailures int     `yaml:"breaker_failures" env:"WEATHER_HARVESTER_BREAKER_FAILURES" validate:"gte=0"`
	BreakerTimeout  float64 `yaml:"breaker_timeout" env:"WEATHER_HARVESTER_BREAKER_TIMEOUT" validate:"gte=0"`

	// Locations from the environment are separated by ';' so "lat,lon"
	// stays one location.
	Locations []string `yaml:"locations" env:"WEATHER_HARVESTER_LOCATIONS" env-separator:";" validate:"dive,required"`

	LogLevel string `yaml:"log_level" env:"WEATHER_HARVESTER_LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error fatal"`
	LogFile  string `yaml:"log_file" env:"WEATHER_HARVESTER_LOG_FILE"`
}

// Defaults returns the settings used for keys nobody set.
func Defaults() Settings {
	return Settings{
		APIURL:              DefaultAPIURL,
		RequestTimeout:      10,
		MaxRetries:          3,
		RetryBackoff:        2.0,
		CacheTTL:            300,
		AlertTemperatureMin: -999,
		AlertTemperatureMax: 999,
		AlertHumidityMax:    100,
		AlertWindSpeedMax:   999,
		AlertCooldown:       900,
		BreakerFailures:     3,
		BreakerTimeout:      300,
	}
}

// LoadSettings builds the effective settings for profile: defaults, then the
// config file (when one resolves), then WEATHER_HARVESTER_* variables. The
// returned Type is the raw document, empty when no file was found.
func LoadSettings(path, profile string) (Settings, Type, error) {
	s := Defaults()
	if profile == "" {
		profile = DefaultProfile
	}

	var cfg Type
	resolved, err := Path(path)
	switch {
	case err == nil:
		if cfg, err = Load(resolved); err != nil {
			return s, cfg, err
		}
		cfg = cfg.WithNamespace(profile)
		if err := decode(cfg, &s); err != nil {
			return s, cfg, err
		}
	case errors.Is(err, ErrNotFound) && path == "" && profile == DefaultProfile:
		// No file anywhere; defaults and environment only.
		cfg = Type{Namespace: profile}
	default:
		return s, cfg, err
	}

	if err := cleanenv.ReadEnv(&s); err != nil {
		return s, cfg, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	s.normalize()
	return s, cfg, nil
}

// decode lays the flattened profile over s.
func decode(cfg Type, s *Settings) error {
	flat, err := cfg.Flatten()
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(flat)
	if err != nil {
		return fmt.Errorf("failed to re-encode profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("failed to decode profile %q in %s: %w", cfg.Namespace, cfg.Source, err)
	}
	return nil
}

func (s *Settings) normalize() {
	if s.CacheDir == "" {
		s.CacheDir = s.CacheLocation
	}
	s.CacheLocation = ""
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	for i := range s.Locations {
		s.Locations[i] = strings.TrimSpace(s.Locations[i])
	}
}

// Validate checks s and returns an error wrapping ErrInvalid that lists every
// problem by its config key.
func (s Settings) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(yamlName)

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func yamlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a URL"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "gtefield":
		return field + " must not be below alert_temperature_min"
	case "oneof":
		return field + " must be one of " + fe.Param()
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Values lists the settings by config key, sorted, for display. Values of
// keys that look like secrets are masked.
func (s Settings) Values() []KeyValue {
	raw, _ := yaml.Marshal(s)
	var m map[string]any
	_ = yaml.Unmarshal(raw, &m)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]KeyValue, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(m[k])
		if m[k] == nil {
			v = ""
		}
		if Sensitive(k) && v != "" {
			v = "***"
		}
		out = append(out, KeyValue{Key: k, Value: v})
	}
	return out
}

// KeyValue is one displayed setting.
type KeyValue struct {
	Key   string
	Value string
}

// Sensitive reports whether a key's value must not be shown.
func Sensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "key") || strings.Contains(k, "password")
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// Timeout is RequestTimeout as a duration.
func (s Settings) Timeout() time.Duration { return seconds(s.RequestTimeout) }

// TTL is CacheTTL as a duration.
func (s Settings) TTL() time.Duration { return seconds(s.CacheTTL) }

// Cooldown is AlertCooldown as a duration.
func (s Settings) Cooldown() time.Duration { return seconds(s.AlertCooldown) }

// BreakerWait is BreakerTimeout as a duration.
func (s Settings) BreakerWait() time.Duration { return seconds(s.BreakerTimeout) }
