package professional

import "time"

type PricingType string

const (
	PricingPerHour     PricingType = "PER_HOUR"
	PricingPerService  PricingType = "PER_SERVICE"
	PricingCustomQuote PricingType = "CUSTOM_QUOTE"
)

func (p PricingType) Valid() bool {
	switch p {
	case PricingPerHour, PricingPerService, PricingCustomQuote:
		return true
	}
	return false
}

type Professional struct {
	ID            string
	UserID        string
	Bio           *string
	PricingType   PricingType
	HourlyRate    *float64
	ServiceRadius *int
	Address       *string
	City          *string
	State         *string
	ZipCode       *string
	Latitude      *float64
	Longitude     *float64
	Verified      bool
	Rating        float64
	ReviewCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time

	User         *UserSummary
	Services     []OfferedService
	Availability []Slot
	Portfolio    []PortfolioItem
}

type UserSummary struct {
	ID        string
	Name      string
	Avatar    *string
	CreatedAt time.Time
}

// OfferedService is one entry of a professional's service catalogue.
type OfferedService struct {
	ID             string
	ProfessionalID string
	CategoryID     string
	Title          string
	Description    string
	Price          *float64
	Active         bool
	CreatedAt      time.Time
	Category       *CategoryRef
}

type CategoryRef struct {
	ID   string
	Name string
	Slug string
}

// Slot is a weekly availability window. Day 0 is Sunday; times are HH:MM.
type Slot struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// PortfolioItem is a showcase entry; Order sorts ascending on the profile.
type PortfolioItem struct {
	ID             string
	ProfessionalID string
	Title          string
	Description    *string
	ImageURL       string
	Order          int
	CreatedAt      time.Time
}

type UpdateParams struct {
	Bio           *string
	PricingType   *PricingType
	HourlyRate    *float64
	ServiceRadius *int
	Address       *string
	City          *string
	State         *string
	ZipCode       *string
	Latitude      *float64
	Longitude     *float64
}

type AddServiceParams struct {
	CategoryID  string
	Title       string
	Description string
	Price       *float64
}

type AddPortfolioItemParams struct {
	Title       string
	Description *string
	ImageURL    string
	Order       *int
}

type SearchFilters struct {
	CategoryID string
	City       string
	State      string
	MinRating  float64
	Page       int
	PageSize   int
}

type SearchResult struct {
	Professionals []Professional
	Total         int
	Page          int
	PageSize      int
	TotalPages    int
}
