package utils

import "fmt"

// allowedCharsArray is a precomputed boolean array for O(1) character validation
var allowedCharsArray [128]bool

func init() {
	for _, c := range "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-:.@+" {
		allowedCharsArray[c] = true
	}
}

// ValidationOptions defines the validation rules for a string
type ValidationOptions struct {
	FieldName    string // Name of the field for error messages
	MaxLength    int    // Maximum allowed length
	MinLength    int    // Minimum allowed length (0 means no minimum)
	EmptyAllowed bool   // Whether empty strings are allowed
}

// ValidateString validates a string against the given options
func ValidateString(value string, opts ValidationOptions) error {
	if len(value) == 0 {
		if opts.EmptyAllowed {
			return nil
		}
		return fmt.Errorf("%s cannot be empty", opts.FieldName)
	}

	if opts.MinLength > 0 && len(value) < opts.MinLength {
		return fmt.Errorf("%s must be at least %d characters, got %d", opts.FieldName, opts.MinLength, len(value))
	}

	if opts.MaxLength > 0 && len(value) > opts.MaxLength {
		return fmt.Errorf("%s cannot exceed %d bytes, got %d bytes", opts.FieldName, opts.MaxLength, len(value))
	}

	const hint = "Only alphanumeric ASCII, underscore (_), hyphen (-), colon (:), period (.), at (@), and plus (+) are allowed"

	for i, r := range value {
		if r >= 128 || !allowedCharsArray[r] {
			return fmt.Errorf("%s contains invalid character '%c' at position %d. %s", opts.FieldName, r, i, hint)
		}
	}

	return nil
}

// ValidateName validates a limiter name. Names end up in log values and
// metric labels, so they follow the same rules as rate limiting keys.
func ValidateName(name string) error {
	return ValidateString(name, ValidationOptions{
		FieldName: "limiter name",
		MaxLength: 64,
		MinLength: 1,
	})
}
