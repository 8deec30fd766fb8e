// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZENFALLACY/weather-harvester/internal/attrs"
	"github.com/ZENFALLACY/weather-harvester/internal/output"
)

type FlagValidatorType func(any) error

// FlagValidators runs validators in order and wraps the first failure for
// flag in ErrUsage.
func FlagValidators(flag string, value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return fmt.Errorf("%w: --%s %w", ErrUsage, flag, err)
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if s, ok := value.(string); ok && strings.HasPrefix(s, "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func NotBlankValidator(value any) error {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return errors.New("must not be empty")
		}
	case []string:
		if len(v) == 0 {
			return errors.New("must name at least one value")
		}
		for _, s := range v {
			if strings.TrimSpace(s) == "" {
				return errors.New("must not contain empty values")
			}
		}
	}
	return nil
}

func OutputValidator(value any) error {
	s, _ := value.(string)
	if _, err := output.ParseFormat(s); err != nil {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

func PositiveDurationValidator(value any) error {
	if d, ok := value.(time.Duration); ok && d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func AttrsValidator(value any) error {
	s, _ := value.(string)
	var al attrs.AttrList
	return al.Set(s)
}

func FilterValidator(value any) error {
	s, _ := value.(string)
	_, err := output.BuildFilters(s)
	return err
}
