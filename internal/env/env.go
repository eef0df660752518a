// Package env reads WLSHOT_* tuning knobs. Unset, blank or malformed values
// fall back to the caller's default.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// Bool accepts 1/0, true/false, on/off and yes/no in any case.
func Bool(name string, defaultValue bool) bool {
	v, ok := lookup(name)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no":
		return false
	}
	return defaultValue
}

// IntClamped parses a decimal integer and clamps it to [minValue, maxValue].
// Inverted bounds leave the value as parsed.
func IntClamped(name string, defaultValue, minValue, maxValue int) int {
	v, ok := lookup(name)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	if minValue > maxValue {
		return n
	}
	return min(max(n, minValue), maxValue)
}

// Millis reads a millisecond count, clamped like IntClamped.
func Millis(name string, defaultValue time.Duration, minValue, maxValue time.Duration) time.Duration {
	n := IntClamped(name, int(defaultValue/time.Millisecond), int(minValue/time.Millisecond), int(maxValue/time.Millisecond))
	return time.Duration(n) * time.Millisecond
}

func String(name, defaultValue string) string {
	if v, ok := lookup(name); ok {
		return v
	}
	return defaultValue
}
