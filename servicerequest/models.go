package servicerequest

import (
	"time"

	"repfy/auth"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions lists the moves allowed through UpdateStatus. PENDING to
// IN_PROGRESS happens only by accepting a quote.
var transitions = map[Status][]Status{
	StatusPending:    {StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a request in s may be moved to next by a
// participant.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "PENDING"
	QuoteAccepted QuoteStatus = "ACCEPTED"
	QuoteRejected QuoteStatus = "REJECTED"
)

// Party is the public view of a client or professional on a request.
type Party struct {
	ID     string
	UserID string
	Name   string
	Avatar *string
	Phone  *string
}

type CategoryRef struct {
	ID   string
	Name string
	Slug string
}

type Request struct {
	ID                 string
	ClientID           string
	ClientUserID       string
	ProfessionalID     *string
	ProfessionalUserID *string
	CategoryID         string
	Title              string
	Description        string
	Address            *string
	City               string
	State              string
	ZipCode            *string
	PreferredDate      *time.Time
	Budget             *float64
	FinalPrice         *float64
	Status             Status
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Category     *CategoryRef
	Client       *Party
	Professional *Party
	Quotes       []Quote
}

type Quote struct {
	ID                 string
	ServiceRequestID   string
	ProfessionalID     string
	ProfessionalUserID string
	Message            string
	Price              float64
	EstimatedDuration  *string
	ValidUntil         time.Time
	Status             QuoteStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Professional *Party
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   auth.Role
}

type CreateParams struct {
	ClientUserID  string
	CategoryID    string
	Title         string
	Description   string
	City          string
	State         string
	Address       *string
	ZipCode       *string
	PreferredDate *string
	Budget        *float64
}

type ListFilters struct {
	Actor    Actor
	Status   Status
	Open     bool
	Page     int
	PageSize int
}

// Scope is the resolved form of ListFilters handed to the repository. Empty
// ids mean no restriction.
type Scope struct {
	ClientID       string
	ProfessionalID string
	Status         Status
	Limit          int
	Offset         int
}

type ListResult struct {
	Requests   []Request
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

type UpdateStatusParams struct {
	RequestID string
	Actor     Actor
	Status    Status
}

type CreateQuoteParams struct {
	RequestID          string
	ProfessionalUserID string
	Message            string
	Price              float64
	EstimatedDuration  *string
	ValidUntil         string
}

type AcceptQuoteParams struct {
	RequestID    string
	QuoteID      string
	ClientUserID string
}

type AcceptResult struct {
	Quote   Quote
	Request Request
}
