// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EnvFilterDelim overrides the "," separating filter expressions.
const EnvFilterDelim = "WEATHER_HARVESTER_FILTER_DELIM"

// filterRegex splits an expression into key, operand and target. The operand
// may carry a leading ! to negate it.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=~^><@/])(.*)$`)

// Filter is one parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification such as "temp_c>25,alerts@Wind".
// An empty spec yields no filters.
func BuildFilters(spec string) ([]Filter, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	delim := ","
	if d, ok := os.LookupEnv(EnvFilterDelim); ok && d != "" {
		delim = d
	}

	var filters []Filter
	for _, expr := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(expr)
		if parts == nil || parts[1] == "" {
			return nil, fmt.Errorf("invalid filter: %q", expr)
		}

		operand := parts[2]
		negate := strings.HasPrefix(operand, "!")
		if negate {
			operand = strings.TrimPrefix(operand, "!")
		}
		if operand == "/" {
			if _, err := regexp.Compile(parts[3]); err != nil {
				return nil, fmt.Errorf("invalid filter regex %q: %w", parts[3], err)
			}
		}

		filters = append(filters, Filter{
			Key:     strings.TrimSpace(parts[1]),
			Negate:  negate,
			Operand: operand,
			Target:  parts[3],
		})
	}
	return filters, nil
}

// FilterRows returns the rows matching every filter. Keys are gjson paths,
// so nested values such as "payload.main.humidity" can be tested.
func FilterRows(rows []map[string]any, filters []Filter) []map[string]any {
	if len(filters) == 0 {
		return rows
	}

	var out []map[string]any
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			continue
		}
		if match(raw, filters) {
			out = append(out, row)
		}
	}
	return out
}

func match(raw []byte, filters []Filter) bool {
	for _, f := range filters {
		value := gjson.GetBytes(raw, f.Key).Value()
		if value == nil {
			return false
		}

		var ok bool
		switch v := value.(type) {
		case string:
			ok = checkStringOperand(v, f)
		case bool:
			ok = checkStringOperand(strconv.FormatBool(v), f)
		case float64:
			ok = checkNumberOperand(v, f)
		default:
			ok = checkContainsOperand(v, f)
		}
		if !ok {
			return false
		}
	}
	return true
}

// checkContainsOperand evaluates '@' against list and object values. Other
// operands compare the JSON form as a string.
func checkContainsOperand(value any, f Filter) bool {
	if f.Operand != "@" {
		return checkStringOperand(InterfaceToString(value), f)
	}

	var found bool
	switch val := value.(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.Contains(s, f.Target) {
				found = true
				break
			}
		}
	case map[string]any:
		_, found = val[f.Target]
	}
	return found == !f.Negate
}

// checkNumberOperand compares numerically when the target is a number and
// falls back to string semantics otherwise.
func checkNumberOperand(value float64, f Filter) bool {
	target, err := strconv.ParseFloat(strings.TrimSpace(f.Target), 64)
	if err != nil {
		return checkStringOperand(InterfaceToString(value), f)
	}

	switch f.Operand {
	case "=", "~":
		return (value == target) == !f.Negate
	case ">":
		return (value > target) == !f.Negate
	case "<":
		return (value < target) == !f.Negate
	default:
		return checkStringOperand(InterfaceToString(value), f)
	}
}

func checkStringOperand(value string, f Filter) bool {
	switch f.Operand {
	case "=":
		return (value == f.Target) == !f.Negate
	case "~":
		return strings.EqualFold(value, f.Target) == !f.Negate
	case "^":
		return strings.HasPrefix(value, f.Target) == !f.Negate
	case ">":
		return (value > f.Target) == !f.Negate
	case "<":
		return (value < f.Target) == !f.Negate
	case "@":
		return strings.Contains(value, f.Target) == !f.Negate
	case "/":
		matched, err := regexp.MatchString(f.Target, value)
		if err != nil {
			return false
		}
		return matched == !f.Negate
	default:
		return false
	}
}
