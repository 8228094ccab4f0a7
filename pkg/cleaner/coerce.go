// pkg/cleaner/coerce.go
package cleaner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeFormats are tried in order when parsing raw date strings.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
}

// parseTime parses a raw date string using the supported formats.
func parseTime(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, errors.New("empty string")
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse time from '%s'", cleaned)
}

// toFloat attempts to convert a raw string to float64
func toFloat(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// toInt attempts to convert a raw string to int64. Values exported as
// floats (e.g. "3.0") are accepted when they carry no fraction.
func toInt(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}

	if v, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("'%s' is not a whole number", cleaned)
	}
	return int64(f), nil
}
