package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// FieldError reports which address field failed validation. The checkout
// handler maps it to a 400 without making any network call.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ShippingAddress is immutable once it has been submitted as part of a
// draft; callers validate before submission.
type ShippingAddress struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

func (a ShippingAddress) Validate() error {
	required := []struct {
		field, value string
	}{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &FieldError{Field: r.field, Reason: "required"}
		}
	}
	if !pincodeRe.MatchString(a.Pincode) {
		return &FieldError{Field: "pincode", Reason: "must be exactly 6 digits"}
	}
	return nil
}
