package address

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"infohub/internal/domain"
)

// NormalizePostalCode strips non-digits and requires exactly 8 digits.
func NormalizePostalCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", fmt.Errorf("postal code %q: %w", raw, domain.ErrInvalidFormat)
	}
	return digits, nil
}

// FormatPostalCode renders 8 digits as NNNNN-NNN; other input is returned unchanged.
func FormatPostalCode(digits string) string {
	if len(digits) != 8 {
		return digits
	}
	return digits[:5] + "-" + digits[5:]
}

// FormatAddress builds "street, number[, complement], neighborhood, city - state, NNNNN-NNN".
func FormatAddress(a domain.Address) string {
	parts := []string{a.Street, a.Number}
	if c := strings.TrimSpace(a.Complement); c != "" {
		parts = append(parts, c)
	}
	parts = append(parts, a.Neighborhood, a.City+" - "+a.State, FormatPostalCode(a.PostalCode))
	return strings.Join(parts, ", ")
}

// cityKey builds the "{city}-{UF}" lookup key, case and accent insensitive.
func cityKey(city, state string) string {
	// transformers keep state between calls, so each key gets its own chain
	foldAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(foldAccents, strings.TrimSpace(city))
	if err != nil {
		folded = strings.TrimSpace(city)
	}
	return strings.ToLower(folded) + "-" + strings.ToUpper(strings.TrimSpace(state))
}
