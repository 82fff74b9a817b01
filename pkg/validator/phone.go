package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits, spaces, dashes, dots, parentheses and a leading +")

	// ErrInvalidLength indicates the number has too few or too many digits
	ErrInvalidLength = errors.New("phone number must have between 8 and 15 digits")
)

const (
	minDigits = 8
	maxDigits = 15 // E.164 maximum
)

var (
	allowedChars = regexp.MustCompile(`^\+?[\d\s\-\.\(\)]+$`)
	digitsOnly   = regexp.MustCompile(`^\d+$`)
)

// PhoneValidator handles guest phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate checks a guest phone number and returns it normalized.
// Accepts formats like +351 912 345 678, (212) 555-0100 or 0771234567.
// A leading + is kept in the normalized form.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrEmptyPhone
	}

	if !allowedChars.MatchString(phone) {
		return "", ErrInvalidFormat
	}

	international := strings.HasPrefix(phone, "+")
	sanitized := v.Sanitize(phone)
	if !digitsOnly.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) < minDigits || len(sanitized) > maxDigits {
		return "", ErrInvalidLength
	}

	if international {
		return "+" + sanitized, nil
	}
	return sanitized, nil
}

// Sanitize removes all separators and the leading +
func (v *PhoneValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "", ".", "", "\t", "")
	return replacer.Replace(phone)
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
