package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Party type constants
const (
	PartyTypePerson  = "PERSON"
	PartyTypeCompany = "COMPANY"
	PartyTypeInsurer = "INSURER"
)

// IsValidPartyType checks if the party type is valid
func IsValidPartyType(t string) bool {
	return t == PartyTypePerson || t == PartyTypeCompany || t == PartyTypeInsurer
}

// PartyDetails holds the master-data fields shared by clients, opponents and
// third parties. Natural persons use the salutation/first/last fields,
// companies and insurers the company/contact fields.
type PartyDetails struct {
	PartyType string `gorm:"size:20;not null;default:PERSON" json:"party_type"`

	// Natural person
	Salutation string `gorm:"size:20" json:"salutation,omitempty"`
	FirstName  string `gorm:"size:100" json:"first_name,omitempty"`
	LastName   string `gorm:"size:100" json:"last_name,omitempty"`

	// Organization (company or insurer)
	CompanyName   string `gorm:"size:255" json:"company_name,omitempty"`
	ContactPerson string `gorm:"size:255" json:"contact_person,omitempty"`

	// Postal address
	Street     string `gorm:"size:255" json:"street,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`

	Phone string `gorm:"size:50" json:"phone,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`
}

// DisplayName returns the name used in lists, conflict checks and snapshots:
// the company name for organizations, "First Last" for persons.
func (p *PartyDetails) DisplayName() string {
	if p.PartyType != PartyTypePerson && p.CompanyName != "" {
		return p.CompanyName
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = p.CompanyName
	}
	return name
}

// IsOrganization reports whether the party is a company or insurer
func (p *PartyDetails) IsOrganization() bool {
	return p.PartyType == PartyTypeCompany || p.PartyType == PartyTypeInsurer
}

// Client represents the firm's client (Mandant) in one or more cases
type Client struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PartyDetails

	// Banking
	IBAN     string `gorm:"size:34" json:"iban,omitempty"`
	BIC      string `gorm:"size:11" json:"bic,omitempty"`
	BankName string `gorm:"size:255" json:"bank_name,omitempty"`

	// Legal expense insurance
	HasLegalInsurance bool   `gorm:"not null;default:false" json:"has_legal_insurance"`
	LegalInsurerName  string `gorm:"size:255" json:"legal_insurer_name,omitempty"`
	LegalPolicyNumber string `gorm:"size:100" json:"legal_policy_number,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clients"
}

// BankDetails returns a single-line description of the client's bank account
func (c *Client) BankDetails() string {
	parts := []string{}
	if c.IBAN != "" {
		parts = append(parts, c.IBAN)
	}
	if c.BIC != "" {
		parts = append(parts, c.BIC)
	}
	if c.BankName != "" {
		parts = append(parts, c.BankName)
	}
	return strings.Join(parts, " / ")
}

// Snapshot copies the client's master data into a frozen snapshot
func (c *Client) Snapshot() PartySnapshot {
	s := snapshotFromDetails(&c.PartyDetails)
	s.BankDetails = c.BankDetails()
	return s
}

// Opponent represents the opposing party (Gegner) record
type Opponent struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PartyDetails
}

// BeforeCreate hook to generate UUID
func (o *Opponent) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Opponent model
func (Opponent) TableName() string {
	return "opponents"
}

// Snapshot copies the opponent's master data into a frozen snapshot
func (o *Opponent) Snapshot() PartySnapshot {
	return snapshotFromDetails(&o.PartyDetails)
}

func snapshotFromDetails(p *PartyDetails) PartySnapshot {
	return PartySnapshot{
		PartyType:     p.PartyType,
		Salutation:    p.Salutation,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		CompanyName:   p.CompanyName,
		ContactPerson: p.ContactPerson,
		Street:        p.Street,
		PostalCode:    p.PostalCode,
		City:          p.City,
		Phone:         p.Phone,
		Email:         p.Email,
		DisplayName:   p.DisplayName(),
	}
}

// MaxThirdPartiesPerCase caps additional involved parties per case
const MaxThirdPartiesPerCase = 10

// ThirdParty represents any other involved party (witness, expert, insurer of
// the opponent, ...) attached to a case with a role label
type ThirdParty struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	Role string `gorm:"size:100;not null" json:"role"`

	PartyDetails
}

// BeforeCreate hook to generate UUID
func (tp *ThirdParty) BeforeCreate(tx *gorm.DB) error {
	if tp.ID == "" {
		tp.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ThirdParty model
func (ThirdParty) TableName() string {
	return "third_parties"
}
