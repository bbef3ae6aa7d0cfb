// Package valueobject holds small immutable values shared by several bounded contexts.
package valueobject

import (
	"strings"
	"unicode"

	"github.com/grocer/backend/internal/domain/shared"
)

// Postcode is a normalized postal code: upper-case with all whitespace removed.
type Postcode struct {
	value string
}

// NormalizePostcode upper-cases s and strips whitespace
func NormalizePostcode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// NewPostcode validates and normalizes a postcode
func NewPostcode(s string) (Postcode, error) {
	v := NormalizePostcode(s)
	if v == "" {
		return Postcode{}, shared.NewDomainError("INVALID_POSTCODE", "Postcode cannot be empty")
	}
	if len(v) > 10 {
		return Postcode{}, shared.NewDomainError("INVALID_POSTCODE", "Postcode cannot exceed 10 characters")
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return Postcode{}, shared.NewDomainError("INVALID_POSTCODE", "Postcode may only contain letters, digits and dashes")
		}
	}
	return Postcode{value: v}, nil
}

// String returns the normalized postcode
func (p Postcode) String() string {
	return p.value
}

// IsZero reports whether the postcode is empty
func (p Postcode) IsZero() bool {
	return p.value == ""
}

// HasPrefix reports whether the postcode starts with the normalized prefix
func (p Postcode) HasPrefix(prefix string) bool {
	prefix = NormalizePostcode(prefix)
	return prefix != "" && strings.HasPrefix(p.value, prefix)
}

// Address is a delivery address
type Address struct {
	RecipientName string `json:"recipient_name"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	Postcode      string `json:"postcode"`
	Phone         string `json:"phone"`
}

// NewAddress validates the required parts of an address and normalizes its postcode
func NewAddress(name, line1, line2, city, postcode, phone string) (Address, error) {
	name = strings.TrimSpace(name)
	line1 = strings.TrimSpace(line1)
	city = strings.TrimSpace(city)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return Address{}, shared.NewDomainError("INVALID_ADDRESS", "Recipient name is required")
	}
	if line1 == "" {
		return Address{}, shared.NewDomainError("INVALID_ADDRESS", "Address line 1 is required")
	}
	if city == "" {
		return Address{}, shared.NewDomainError("INVALID_ADDRESS", "City is required")
	}
	pc, err := NewPostcode(postcode)
	if err != nil {
		return Address{}, err
	}
	if phone == "" {
		return Address{}, shared.NewDomainError("INVALID_ADDRESS", "Contact phone is required")
	}

	return Address{
		RecipientName: name,
		Line1:         line1,
		Line2:         strings.TrimSpace(line2),
		City:          city,
		Postcode:      pc.String(),
		Phone:         phone,
	}, nil
}
