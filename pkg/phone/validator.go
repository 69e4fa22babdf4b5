// Package phone normalizes and validates Bangladeshi mobile wallet account
// numbers.
package phone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// Region is the default region used when parsing local numbers.
	Region = "BD"

	bdCountryCode = 880
)

// accountPattern is the local 11-digit mobile form, operator prefixes 013-019.
var accountPattern = regexp.MustCompile(`^01[3-9]\d{8}$`)

// NormalizeAccountNumber returns the 11-digit local form of a BD mobile
// account number. Input must be the local form exactly, or the same digits
// behind a "+880" or "880" prefix. Separators, extensions and any other
// characters are rejected.
func NormalizeAccountNumber(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("account number cannot be empty")
	}
	if accountPattern.MatchString(raw) {
		return raw, nil
	}

	national, ok := cutCountryCode(raw)
	if !ok || !accountPattern.MatchString("0"+national) {
		return "", fmt.Errorf("account number %q is not a valid mobile number", raw)
	}

	parsed, err := phonenumbers.Parse("+880"+national, Region)
	if err != nil {
		return "", fmt.Errorf("failed to parse account number: %w", err)
	}
	if int(parsed.GetCountryCode()) != bdCountryCode ||
		parsed.GetExtension() != "" ||
		phonenumbers.GetNationalSignificantNumber(parsed) != national {
		return "", fmt.Errorf("account number %q is not a valid mobile number", raw)
	}

	return "0" + national, nil
}

func cutCountryCode(raw string) (string, bool) {
	if rest, ok := strings.CutPrefix(raw, "+880"); ok {
		return rest, true
	}
	return strings.CutPrefix(raw, "880")
}
