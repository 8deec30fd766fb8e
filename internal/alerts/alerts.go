// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package alerts

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

const (
	// DefaultCooldown is the minimum gap between two notifications for one
	// location.
	DefaultCooldown = 15 * time.Minute

	kelvinOffset = 273.15
)

// Thresholds bound acceptable conditions. Temperatures are Celsius, wind is
// m/s, humidity is percent.
type Thresholds struct {
	TempMinC     float64
	TempMaxC     float64
	HumidityMax  float64
	WindSpeedMax float64
}

// DefaultThresholds never fire on real weather.
func DefaultThresholds() Thresholds {
	return Thresholds{TempMinC: -999, TempMaxC: 999, HumidityMax: 100, WindSpeedMax: 999}
}

// Notifier delivers triggered alerts somewhere a human will see them.
type Notifier interface {
	Notify(location string, messages []string, payload fetcher.Payload) error
}

// Manager evaluates payloads against thresholds. It is safe for concurrent
// use.
type Manager struct {
	thresholds Thresholds
	notifiers  []Notifier
	cooldown   time.Duration
	logger     log.Interface
	now        func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithNotifier adds n. Without any, alerts go to a ConsoleNotifier on stderr.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifiers = append(m.notifiers, n) }
}

// WithCooldown replaces DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(m *Manager) { m.cooldown = d }
}

// WithLogger routes alert diagnostics to l.
func WithLogger(l log.Interface) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager for th.
func NewManager(th Thresholds, opts ...Option) *Manager {
	m := &Manager{
		thresholds: th,
		cooldown:   DefaultCooldown,
		logger:     log.Log,
		now:        time.Now,
		last:       map[string]time.Time{},
	}
	for _, o := range opts {
		o(m)
	}
	if len(m.notifiers) == 0 {
		m.notifiers = []Notifier{NewConsoleNotifier(os.Stderr)}
	}
	return m
}

// Check returns every threshold the payload breaches and notifies unless the
// location was notified within the cooldown. Messages are returned either
// way.
func (m *Manager) Check(location string, payload fetcher.Payload) []string {
	messages := Evaluate(m.thresholds, payload)
	if len(messages) == 0 {
		return nil
	}

	logger := m.logger.WithField("location", location)
	if !m.claim(location) {
		logger.Debug("alert suppressed during cooldown")
		return messages
	}

	logger.WithField("alerts", strings.Join(messages, "; ")).Warn("alert triggered")
	for _, n := range m.notifiers {
		if err := n.Notify(location, messages, payload); err != nil {
			logger.WithError(err).Error("failed to deliver alert")
		}
	}
	return messages
}

// claim records a notification for location if it is outside the cooldown.
func (m *Manager) claim(location string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if last, ok := m.last[location]; ok && now.Sub(last) <= m.cooldown {
		return false
	}
	m.last[location] = now
	return true
}

// Evaluate lists the thresholds payload breaches. main.temp is Kelvin.
func Evaluate(th Thresholds, payload fetcher.Payload) []string {
	doc := payload.JSON()
	var messages []string

	if t := gjson.GetBytes(doc, "main.temp"); t.Type == gjson.Number {
		c := t.Float() - kelvinOffset
		switch {
		case c < th.TempMinC:
			messages = append(messages, fmt.Sprintf("Temperature too low: %.1f°C (threshold: %s°C)", c, num(th.TempMinC)))
		case c > th.TempMaxC:
			messages = append(messages, fmt.Sprintf("Temperature too high: %.1f°C (threshold: %s°C)", c, num(th.TempMaxC)))
		}
	}

	if h := gjson.GetBytes(doc, "main.humidity"); h.Type == gjson.Number && h.Float() > th.HumidityMax {
		messages = append(messages, fmt.Sprintf("Humidity too high: %s%% (threshold: %s%%)", num(h.Float()), num(th.HumidityMax)))
	}

	if w := gjson.GetBytes(doc, "wind.speed"); w.Type == gjson.Number && w.Float() > th.WindSpeedMax {
		messages = append(messages, fmt.Sprintf("Wind speed too high: %s m/s (threshold: %s m/s)", num(w.Float()), num(th.WindSpeedMax)))
	}

	return messages
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
