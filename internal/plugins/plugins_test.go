// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

func payload() fetcher.Payload {
	return fetcher.Payload{
		"name":       "London",
		"main":       map[string]any{"temp": 293.15, "humidity": 85.0},
		"wind":       map[string]any{"speed": 12.5},
		"visibility": 800.0,
		"clouds":     map[string]any{"all": 90.0},
	}
}

func TestTemperatureConverter(t *testing.T) {
	in := payload()
	out, err := TemperatureConverter{}.Transform(in)
	require.NoError(t, err)

	main := out["main"].(map[string]any)
	assert.InDelta(t, 20.0, main["temp_celsius"], 0.001)
	assert.InDelta(t, 68.0, main["temp_fahrenheit"], 0.001)
	assert.Equal(t, "Comfortable", main["temp_category"])

	assert.NotContains(t, in["main"].(map[string]any), "temp_celsius", "input must not be mutated")
}

func TestTemperatureConverter_Rounding(t *testing.T) {
	out, err := TemperatureConverter{}.Transform(fetcher.Payload{"main": map[string]any{"temp": 280.333}})
	require.NoError(t, err)

	main := out["main"].(map[string]any)
	assert.Equal(t, 7.18, main["temp_celsius"])
	assert.Equal(t, 44.93, main["temp_fahrenheit"])
}

func TestTemperatureConverter_NoTemp(t *testing.T) {
	in := fetcher.Payload{"main": map[string]any{"humidity": 50.0}}
	out, err := TemperatureConverter{}.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = TemperatureConverter{}.Transform(fetcher.Payload{"main": map[string]any{"temp": "hot"}})
	require.NoError(t, err)
	assert.NotContains(t, out["main"].(map[string]any), "temp_celsius")
}

func TestTemperatureCategory(t *testing.T) {
	tests := []struct {
		c    float64
		want string
	}{
		{-20, "Extremely Cold"},
		{-10, "Very Cold"},
		{-0.1, "Very Cold"},
		{0, "Cold"},
		{10, "Cool"},
		{19.99, "Cool"},
		{20, "Comfortable"},
		{25, "Warm"},
		{30, "Hot"},
		{35, "Extremely Hot"},
		{50, "Extremely Hot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TemperatureCategory(tt.c), "%.2f", tt.c)
	}
}

func TestWeatherAnalyzer(t *testing.T) {
	tests := []struct {
		name string
		in   fetcher.Payload
		want []any
	}{
		{
			name: "everything notable",
			in:   payload(),
			want: []any{
				"High humidity - may feel uncomfortable",
				"Strong winds - take precautions",
				"Poor visibility - fog or haze",
				"Overcast skies",
			},
		},
		{
			name: "dry calm clear",
			in: fetcher.Payload{
				"main":       map[string]any{"humidity": 20.0},
				"wind":       map[string]any{"speed": 0.5},
				"visibility": 10000.0,
				"clouds":     map[string]any{"all": 5.0},
			},
			want: []any{"Low humidity - air is dry", "Calm conditions", "Clear skies"},
		},
		{
			name: "unremarkable",
			in: fetcher.Payload{
				"main":   map[string]any{"humidity": 50.0},
				"wind":   map[string]any{"speed": 5.0},
				"clouds": map[string]any{"all": 50.0},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := WeatherAnalyzer{}.Transform(tt.in)
			require.NoError(t, err)
			if tt.want == nil {
				assert.NotContains(t, out, "insights")
				return
			}
			assert.Equal(t, tt.want, out["insights"])
			assert.NotContains(t, tt.in, "insights")
		})
	}
}

type brokenPlugin struct {
	panics bool
}

func (brokenPlugin) Name() string        { return "Broken" }
func (brokenPlugin) Version() string     { return "0.0.1" }
func (brokenPlugin) Description() string { return "always fails" }
func (b brokenPlugin) Transform(fetcher.Payload) (fetcher.Payload, error) {
	if b.panics {
		panic("boom")
	}
	return nil, errors.New("boom")
}

type unhealthyPlugin struct{ brokenPlugin }

func (unhealthyPlugin) Name() string    { return "Unhealthy" }
func (unhealthyPlugin) Validate() error { return errors.New("missing model") }

func TestRegistry_Default(t *testing.T) {
	r := Default(nil)

	var names []string
	for _, p := range r.Plugins() {
		names = append(names, p.Name())
		assert.NotEmpty(t, p.Version())
		assert.NotEmpty(t, p.Description())
	}
	assert.Equal(t, []string{"TemperatureConverter", "WeatherAnalyzer"}, names)

	p, ok := r.Lookup("WeatherAnalyzer")
	require.True(t, ok)
	assert.Equal(t, "WeatherAnalyzer", p.Name())

	_, ok = r.Lookup("Nope")
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(TemperatureConverter{}))
	assert.Error(t, r.Register(TemperatureConverter{}))
	assert.Error(t, r.Register(unhealthyPlugin{}))
	assert.Len(t, r.Plugins(), 1)
}

func TestRegistry_ApplySkipsFailures(t *testing.T) {
	h := memory.New()
	logger := &log.Logger{Handler: h, Level: log.DebugLevel}

	r := NewRegistry(logger)
	require.NoError(t, r.Register(brokenPlugin{}))
	require.NoError(t, r.Register(TemperatureConverter{}))
	require.NoError(t, r.Register(WeatherAnalyzer{}))

	in := payload()
	out := r.Apply(in)

	assert.Contains(t, out, "insights")
	assert.Contains(t, out["main"].(map[string]any), "temp_category")
	assert.NotContains(t, in, "insights")

	require.Len(t, h.Entries, 1)
	assert.Equal(t, log.WarnLevel, h.Entries[0].Level)
	assert.Equal(t, "Broken", h.Entries[0].Fields["plugin"])
}

func TestRegistry_ApplyRecoversPanics(t *testing.T) {
	h := memory.New()
	r := NewRegistry(&log.Logger{Handler: h, Level: log.DebugLevel})
	require.NoError(t, r.Register(brokenPlugin{panics: true}))

	in := payload()
	assert.NotPanics(t, func() { assert.Equal(t, in, r.Apply(in)) })
	assert.Len(t, h.Entries, 1)
}
