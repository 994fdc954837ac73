package jira

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidDuration is returned when a time string contains no
// recognizable duration tokens.
var ErrInvalidDuration = errors.New("invalid duration format")

// durationTokenRe matches one Jira duration token: an integer followed
// by a unit letter. The scan is permissive: unmatched text is ignored,
// matched tokens accumulate.
var durationTokenRe = regexp.MustCompile(`(\d+)([wdhm])`)

// Seconds per Jira duration unit.
const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
)

var unitSeconds = map[string]int{
	"w": secondsPerWeek,
	"d": secondsPerDay,
	"h": secondsPerHour,
	"m": secondsPerMinute,
}

// ParseDuration converts a Jira duration string like "1w 2d 3h 45m" to
// seconds. Token order does not matter; contributions are additive.
// Returns ErrInvalidDuration for empty input or input with no tokens.
func ParseDuration(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidDuration)
	}

	matches := durationTokenRe.FindAllStringSubmatch(strings.ToLower(s), -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q (expected tokens like \"1h 30m\")", ErrInvalidDuration, s)
	}

	total := 0
	for _, m := range matches {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total += value * unitSeconds[m[2]]
	}
	return total, nil
}

// FormatDuration renders seconds as a Jira duration string, largest
// unit first, e.g. 5400 -> "1h 30m". Zero and negative values render
// as "0m".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}

	units := []struct {
		label   string
		seconds int
	}{
		{"w", secondsPerWeek},
		{"d", secondsPerDay},
		{"h", secondsPerHour},
		{"m", secondsPerMinute},
	}

	var parts []string
	for _, u := range units {
		if n := seconds / u.seconds; n > 0 {
			parts = append(parts, strconv.Itoa(n)+u.label)
			seconds -= n * u.seconds
		}
	}
	if len(parts) == 0 {
		// Sub-minute remainder rounds down to nothing.
		return "0m"
	}
	return strings.Join(parts, " ")
}
