package flowcore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// TIMESTAMP PARSING — the §6 parser contract for assignTimestamps sources
// that read an external timestamp representation. Accepted forms: a decimal
// integer (milliseconds since epoch), "YYYY-MM-DD HH:MM:SS[.fff]", or
// "YYYYMMDDTHHMMSS[.ffffff]". Result is always microseconds since epoch.
// ============================================================================

const (
	layoutSpace  = "2006-01-02 15:04:05"
	layoutSpaceMs = "2006-01-02 15:04:05.000"
	layoutCompact = "20060102T150405"
	layoutCompactUs = "20060102T150405.000000"
)

// ParseTimestamp decodes raw into microseconds since the Unix epoch, trying
// each accepted form in turn. Returns ErrParse if none match.
func ParseTimestamp(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty timestamp", ErrParse)
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms * 1000, nil
	}

	if strings.Contains(raw, " ") {
		layout := layoutSpace
		if strings.Contains(raw, ".") {
			layout = layoutSpaceMs
		}
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMicro(), nil
		}
	} else if strings.Contains(raw, "T") {
		layout := layoutCompact
		if strings.Contains(raw, ".") {
			layout = layoutCompactUs
		}
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMicro(), nil
		}
	}

	return 0, fmt.Errorf("%w: timestamp %q matches no accepted form", ErrParse, raw)
}
