// Package duration converts compact duration strings ("30s", "15m", "7d",
// "3M") into absolute expiry timestamps. The unit letter is case-sensitive:
// 'm' is minutes, 'M' is months.
package duration

import (
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidFormat is returned when the input does not match the grammar.
var ErrInvalidFormat = errors.New("invalid duration format")

var pattern = regexp.MustCompile(`^(\d+)([smhdwMy])$`)

// Parse returns the instant "now + duration" for a compact duration string.
func Parse(duration string) (time.Time, error) {
	return ParseAt(duration, time.Now())
}

// ParseAt is Parse anchored to an explicit reference instant. Month and year
// units use calendar arithmetic, so their length depends on the anchor date.
func ParseAt(duration string, now time.Time) (time.Time, error) {
	match := pattern.FindStringSubmatch(duration)
	if match == nil {
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "parse %q", duration)
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "parse %q", duration)
	}

	switch match[2] {
	case "s":
		return now.Add(time.Duration(value) * time.Second), nil
	case "m":
		return now.Add(time.Duration(value) * time.Minute), nil
	case "h":
		return now.Add(time.Duration(value) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, value), nil
	case "w":
		return now.AddDate(0, 0, value*7), nil
	case "M":
		return now.AddDate(0, value, 0), nil
	case "y":
		return now.AddDate(value, 0, 0), nil
	default:
		return time.Time{}, errors.Wrapf(ErrInvalidFormat, "parse %q", duration)
	}
}
