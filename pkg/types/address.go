package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery destination captured at checkout. It is
// persisted as a JSON document.
type ShippingAddress struct {
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"omitempty,len=2"`
}

// Normalize trims every field and defaults the country to US.
func (a ShippingAddress) Normalize() ShippingAddress {
	out := ShippingAddress{
		Line1:      strings.TrimSpace(a.Line1),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if a.Line2 != nil {
		if line2 := strings.TrimSpace(*a.Line2); line2 != "" {
			out.Line2 = &line2
		}
	}
	if out.Country == "" {
		out.Country = "US"
	}
	return out
}

// Value marshals the address into JSON.
func (a ShippingAddress) Value() (driver.Value, error) {
	if a.Line1 == "" || a.City == "" || a.PostalCode == "" {
		return nil, fmt.Errorf("shipping address: line1, city and postal_code are required")
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the JSON stored in the database.
func (a *ShippingAddress) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	default:
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}
}
