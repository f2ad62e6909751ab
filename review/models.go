package review

import "time"

type Review struct {
	ID               string
	ServiceRequestID string
	AuthorID         string
	TargetID         string
	Rating           int
	Comment          *string
	CreatedAt        time.Time

	Author  *Author
	Request *RequestSummary
}

type Author struct {
	ID     string
	Name   string
	Avatar *string
}

type RequestSummary struct {
	ID           string
	Title        string
	CategoryID   string
	CategoryName string
}

// RequestState is the locked view of a service request taken while a review
// is being written.
type RequestState struct {
	ID                 string
	Status             string
	ClientUserID       string
	ProfessionalUserID *string
	Reviewed           bool
}

type CreateParams struct {
	ServiceRequestID string
	AuthorID         string
	TargetID         string
	Rating           int
	Comment          *string
}

type ListResult struct {
	Reviews    []Review
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
