package jira

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// dateLayouts are tried in order when parsing a normalized timestamp.
// Go's parser accepts a fractional seconds field in the input even when
// the layout omits one, so these cover Jira's millisecond variants too.
var dateLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeDate converts one of Jira's variably formatted timestamp
// strings to a canonical YYYY-MM-DD date. Jira spells timezone offsets
// several ways (+0000, Z, +00:00); all are accepted. On parse failure
// the input is returned unchanged along with the error so callers can
// log a diagnostic and degrade to passthrough.
func NormalizeDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	normalized := normalizeOffset(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return s, fmt.Errorf("unrecognized timestamp %q", s)
}

// normalizeDate is NormalizeDate on best-effort wire paths: a parse
// failure is recorded on the log and the raw value passed through.
func normalizeDate(log zerolog.Logger, s string) string {
	out, err := NormalizeDate(s)
	if err != nil {
		log.Warn().Err(err).Msg("timestamp did not normalize, passing through")
	}
	return out
}

// normalizeOffset rewrites Jira's timezone spellings into RFC 3339 form:
// a trailing +0000/-0000 becomes +00:00, any other [+-]HHMM offset gains
// a colon, and a trailing Z becomes +00:00.
func normalizeOffset(s string) string {
	switch {
	case strings.HasSuffix(s, "+0000"):
		return strings.TrimSuffix(s, "+0000") + "+00:00"
	case strings.HasSuffix(s, "-0000"):
		return strings.TrimSuffix(s, "-0000") + "+00:00"
	case strings.HasSuffix(s, "Z"):
		return strings.TrimSuffix(s, "Z") + "+00:00"
	}

	if len(s) >= 5 {
		tail := s[len(s)-5:]
		if (tail[0] == '+' || tail[0] == '-') && isDigits(tail[1:]) {
			return s[:len(s)-2] + ":" + s[len(s)-2:]
		}
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
