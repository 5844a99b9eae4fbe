package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultReminderDays matches the thresholds shipped with a fresh install.
const DefaultReminderDays = "90,60,30,7"

// ErrInvalidConfig marks a configuration entry that was discarded.
var ErrInvalidConfig = errors.New("invalid config")

// ReminderConfig is the set of day thresholds before expiry at which reminders fire.
// Thresholds are positive, unique and sorted from largest to smallest.
type ReminderConfig struct {
	Thresholds []int
}

// NewReminderConfig validates days, dropping non-positive values and duplicates.
// The returned config always holds the valid subset; err lists what was dropped.
func NewReminderConfig(days []int) (ReminderConfig, error) {
	var (
		errs []error
		out  = make([]int, 0, len(days))
	)
	for _, d := range days {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%w: threshold %d is not positive", ErrInvalidConfig, d))
			continue
		}
		if slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b int) int { return b - a })
	return ReminderConfig{Thresholds: out}, errors.Join(errs...)
}

// ParseThresholds parses a comma separated list such as "90, 60, 30, 7".
// Non-numeric and non-positive entries are discarded.
func ParseThresholds(raw string) (ReminderConfig, error) {
	var (
		errs []error
		days []int
	)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: threshold %q is not a number", ErrInvalidConfig, part))
			continue
		}
		days = append(days, d)
	}
	cfg, err := NewReminderConfig(days)
	if err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// String renders the thresholds in the same comma separated form ParseThresholds accepts.
func (c ReminderConfig) String() string {
	parts := make([]string, len(c.Thresholds))
	for i, d := range c.Thresholds {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}
