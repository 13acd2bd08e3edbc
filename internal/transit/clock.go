package transit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTime reports a wall-clock string that is not HH:MM[:SS].
var ErrMalformedTime = errors.New("malformed time")

// ParseClock parses HH:MM:SS (or HH:MM) into seconds since the start of the
// service day. Hours may be 24 or more for trips running past midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	fields := [3]int{}
	for i, p := range parts {
		n, ok := atoiDigits(p)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
		}
		fields[i] = n
	}
	h, m, sec := fields[0], fields[1], fields[2]
	if m > 59 || sec > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	return h*3600 + m*60 + sec, nil
}

// FormatClock renders seconds since service-day start as HH:MM:SS.
func FormatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// atoiDigits accepts only unsigned decimal fields; strconv.Atoi alone would
// let "+5" and "-1" through.
func atoiDigits(p string) (int, bool) {
	if p == "" || len(p) > 3 {
		return 0, false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(p)
	return n, err == nil
}
