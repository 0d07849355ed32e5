package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidDateToken is returned when a date field in a source record cannot be parsed.
var ErrInvalidDateToken = errors.New("invalid date token")

// ParseISODate converts YYYY-MM-DD (optionally followed by a time part such
// as "T00:00:00") into a civil.Date.
func ParseISODate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDateToken, s)
	}
	return d, nil
}

var slashDatePattern = regexp.MustCompile(`([0-9]{1,2})/([0-9]{1,2})/([0-9]{4})`)

// ParseSlashDate converts M/D/YYYY (leading zeros optional) into a civil.Date.
func ParseSlashDate(s string) (civil.Date, error) {
	m := slashDatePattern.FindStringSubmatch(s)
	if m == nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDateToken, s)
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateToken, s)
	}
	return d, nil
}

// LooksLikeSlashDate reports whether a line starts with an M/D/YYYY token.
func LooksLikeSlashDate(line string) bool {
	loc := slashDatePattern.FindStringIndex(line)
	return loc != nil && loc[0] == 0
}
