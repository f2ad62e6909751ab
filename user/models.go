package user

import (
	"time"

	"repfy/auth"
)

type ClientProfile struct {
	ID      string
	Address *string
	City    *string
	State   *string
	ZipCode *string
}

type ProfessionalSummary struct {
	ID          string
	Bio         *string
	PricingType string
	HourlyRate  *float64
	Verified    bool
	Rating      float64
	ReviewCount int
}

// Profile is the authenticated user's own view of the account.
type Profile struct {
	ID           string
	Email        string
	Name         string
	Phone        *string
	Avatar       *string
	Role         auth.Role
	Status       auth.Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Client       *ClientProfile
	Professional *ProfessionalSummary
}

// PublicProfile omits contact details.
type PublicProfile struct {
	ID           string
	Name         string
	Avatar       *string
	Role         auth.Role
	CreatedAt    time.Time
	Professional *ProfessionalSummary
}

type Summary struct {
	ID        string
	Email     string
	Name      string
	Role      auth.Role
	Status    auth.Status
	CreatedAt time.Time
}

type UpdateParams struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}

type ListFilters struct {
	Role     auth.Role
	Status   auth.Status
	Page     int
	PageSize int
}

type ListResult struct {
	Users      []Summary
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
