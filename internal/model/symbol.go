package model

import (
	"fmt"
	"regexp"
	"strings"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.]{1,10}$`)

// NormalizeSymbol trims and upper-cases raw input and checks it against the
// ticker format. Dots are allowed for composite tickers such as BRK.B.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: invalid symbol %q", ErrValidation, raw)
	}
	return s, nil
}
