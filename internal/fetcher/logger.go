// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger feeds retryablehttp's own chatter into apex/log. The client
// reports every failed attempt at error level; those are retried, and the
// fetcher logs the real outcome, so they are demoted to debug.
type leveledLogger struct {
	logger log.Interface
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, kv ...any) { l.entry(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.entry(kv).Debug(msg) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.entry(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.entry(kv).Debug(msg) }

// entry keeps scalar fields only. Request URLs carry the api key in the
// query string and are never logged.
func (l leveledLogger) entry(kv []any) *log.Entry {
	fields := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		if k == "url" || k == "request" {
			continue
		}
		switch v := kv[i+1].(type) {
		case string, int, bool, time.Duration:
			fields[k] = v
		case error:
			fields[k] = redact(v).Error()
		}
	}
	return l.logger.WithFields(fields)
}
