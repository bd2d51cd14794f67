package alert

import (
	"fmt"
	"strings"
)

// NormalizePhone canonicalizes a raw phone number to +<country><subscriber>.
// Non-digits are stripped; a 10-digit number is assumed domestic and gets the
// country code prefix; a 12-digit number already starting with the country
// code is used as-is. Any other shape is rejected.
func NormalizePhone(raw, countryCode string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 10:
		return "+" + countryCode + d, nil
	case len(d) == len(countryCode)+10 && strings.HasPrefix(d, countryCode):
		return "+" + d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, raw)
	}
}
