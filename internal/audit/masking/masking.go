package masking

import (
	"strings"
	"unicode"
)

const maskRune = '*'

// MaskPaymentDetails hides account numbers and similar identifiers, keeping
// only the last four letters or digits so an operator can still tell accounts apart.
// Separators such as spaces and dashes are preserved.
func MaskPaymentDetails(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	runes := []rune(trimmed)
	keep := 4
	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if keep > 0 {
			keep--
			continue
		}
		runes[i] = maskRune
	}
	return string(runes)
}

var sensitiveKeys = map[string]struct{}{
	"payment_details": {},
	"account_number":  {},
	"iban":            {},
	"email":           {},
}

// MaskMetadata returns a copy of input with sensitive string values masked.
func MaskMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskValue(trimmedKey, value)
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
			return MaskPaymentDetails(cast)
		}
		return cast
	case map[string]any:
		return MaskMetadata(cast)
	default:
		return value
	}
}
