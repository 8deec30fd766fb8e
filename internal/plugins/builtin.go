// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"math"

	"github.com/tidwall/gjson"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

const kelvinOffset = 273.15

// TemperatureConverter adds temp_celsius, temp_fahrenheit and temp_category
// next to main.temp (Kelvin).
type TemperatureConverter struct{}

func (TemperatureConverter) Name() string    { return "TemperatureConverter" }
func (TemperatureConverter) Version() string { return "1.0.0" }
func (TemperatureConverter) Description() string {
	return "Converts temperature units and categorizes temperature ranges"
}

func (TemperatureConverter) Transform(in fetcher.Payload) (fetcher.Payload, error) {
	temp := gjson.GetBytes(in.JSON(), "main.temp")
	if temp.Type != gjson.Number {
		return in, nil
	}

	out := in.Clone()
	main, ok := out["main"].(map[string]any)
	if !ok {
		return in, nil
	}

	c := temp.Float() - kelvinOffset
	main["temp_celsius"] = round2(c)
	main["temp_fahrenheit"] = round2(c*9/5 + 32)
	main["temp_category"] = TemperatureCategory(c)
	return out, nil
}

// TemperatureCategory names the band a Celsius temperature falls in.
func TemperatureCategory(c float64) string {
	switch {
	case c < -10:
		return "Extremely Cold"
	case c < 0:
		return "Very Cold"
	case c < 10:
		return "Cold"
	case c < 20:
		return "Cool"
	case c < 25:
		return "Comfortable"
	case c < 30:
		return "Warm"
	case c < 35:
		return "Hot"
	default:
		return "Extremely Hot"
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// WeatherAnalyzer adds human readable insights about humidity, wind,
// visibility and cloud cover.
type WeatherAnalyzer struct{}

func (WeatherAnalyzer) Name() string        { return "WeatherAnalyzer" }
func (WeatherAnalyzer) Version() string     { return "1.0.0" }
func (WeatherAnalyzer) Description() string { return "Analyzes weather conditions and provides insights" }

func (WeatherAnalyzer) Transform(in fetcher.Payload) (fetcher.Payload, error) {
	doc := in.JSON()
	var insights []any

	if h := gjson.GetBytes(doc, "main.humidity"); h.Type == gjson.Number {
		switch {
		case h.Float() > 80:
			insights = append(insights, "High humidity - may feel uncomfortable")
		case h.Float() < 30:
			insights = append(insights, "Low humidity - air is dry")
		}
	}

	if w := gjson.GetBytes(doc, "wind.speed"); w.Type == gjson.Number {
		switch {
		case w.Float() > 10:
			insights = append(insights, "Strong winds - take precautions")
		case w.Float() < 1:
			insights = append(insights, "Calm conditions")
		}
	}

	if v := gjson.GetBytes(doc, "visibility"); v.Type == gjson.Number && v.Float() < 1000 {
		insights = append(insights, "Poor visibility - fog or haze")
	}

	if c := gjson.GetBytes(doc, "clouds.all"); c.Type == gjson.Number {
		switch {
		case c.Float() > 80:
			insights = append(insights, "Overcast skies")
		case c.Float() < 20:
			insights = append(insights, "Clear skies")
		}
	}

	if len(insights) == 0 {
		return in, nil
	}
	out := in.Clone()
	out["insights"] = insights
	return out, nil
}
