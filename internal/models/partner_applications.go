package models

import "time"

// PartnerType enumerates the partnership programs.
type PartnerType string

const (
	PartnerAffiliate PartnerType = "affiliate"
	PartnerIB        PartnerType = "ib"
	PartnerRegional  PartnerType = "regional"
)

func (p PartnerType) Valid() bool {
	switch p {
	case PartnerAffiliate, PartnerIB, PartnerRegional:
		return true
	}
	return false
}

// PartnerApplication is a submitted partnership request.
type PartnerApplication struct {
	ID          string      `json:"id" db:"id"`
	FirstName   string      `json:"first_name" db:"first_name"`
	LastName    string      `json:"last_name" db:"last_name"`
	Email       string      `json:"email" db:"email"`
	Phone       string      `json:"phone,omitempty" db:"phone"`
	Company     string      `json:"company,omitempty" db:"company"`
	Country     string      `json:"country,omitempty" db:"country"`
	PartnerType PartnerType `json:"partner_type" db:"partner_type"`
	Experience  string      `json:"experience,omitempty" db:"experience"`
	Goals       string      `json:"goals,omitempty" db:"goals"`
	IPAddress   string      `json:"ip_address" db:"ip_address"`
	UserAgent   string      `json:"user_agent" db:"user_agent"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
