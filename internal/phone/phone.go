// Package phone normalizes raw phone numbers into the ordered list of chat
// addresses a Mexican number may be registered under. WhatsApp historically
// registered MX numbers as 52XXXXXXXXXX or 521XXXXXXXXXX, so a bare 10-digit
// number has two plausible addresses and callers must probe them in order.
package phone

import (
	"errors"
	"strings"
)

const (
	countryPrefix = "52"
	mobilePrefix  = "521"

	zeroSentinel = "0000000000"
)

var ErrInvalid = errors.New("phone: invalid number")

// Normalize strips everything but digits.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate rejects numbers whose digit-only form is shorter than 10 digits or
// equals the reserved all-zero placeholder.
func Validate(raw string) error {
	digits := Normalize(raw)
	if len(digits) < 10 || digits == zeroSentinel {
		return ErrInvalid
	}
	return nil
}

// Candidates expands a raw number into digit-only address candidates, most
// likely first. The returned order is part of the contract: callers stop at
// the first candidate the gateway confirms reachable.
func Candidates(raw string) ([]string, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	digits := Normalize(raw)

	switch {
	case len(digits) == 10:
		return []string{countryPrefix + digits, mobilePrefix + digits}, nil
	case len(digits) == 13 && strings.HasPrefix(digits, mobilePrefix):
		return []string{digits, countryPrefix + digits[len(mobilePrefix):]}, nil
	case len(digits) == 12 && strings.HasPrefix(digits, countryPrefix):
		return []string{digits, mobilePrefix + digits[len(countryPrefix):]}, nil
	default:
		// Other country or format, use as given.
		return []string{digits}, nil
	}
}
