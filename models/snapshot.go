package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PartySnapshot is the frozen copy of a party's master data taken when a case
// is closed. It is stored as a JSON text column and never updated afterwards.
type PartySnapshot struct {
	PartyType     string `json:"party_type"`
	Salutation    string `json:"salutation,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Street        string `json:"street,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	City          string `json:"city,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	BankDetails   string `json:"bank_details,omitempty"`
	DisplayName   string `json:"display_name"`
}

// Value serializes the snapshot for storage
func (s PartySnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan deserializes the snapshot from storage
func (s *PartySnapshot) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for PartySnapshot: %T", value)
	}
}

// JSONMap is a free-form key/value blob stored as JSON text.
// Used for the case's flexible extra-info field.
type JSONMap map[string]interface{}

// Value serializes the map for storage
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(JSONMap{})
	}
	return json.Marshal(m)
}

// Scan deserializes the map from storage
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
}
