package notification

import "time"

type Type string

const (
	TypeQuoteReceived        Type = "QUOTE_RECEIVED"
	TypeQuoteAccepted        Type = "QUOTE_ACCEPTED"
	TypeRequestStatusChanged Type = "REQUEST_STATUS_CHANGED"
	TypeReviewReceived       Type = "REVIEW_RECEIVED"
)

type Notification struct {
	ID        string
	UserID    string
	Type      Type
	Title     string
	Message   string
	Data      map[string]any
	Read      bool
	CreatedAt time.Time
}

type ListFilters struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}

type ListResult struct {
	Notifications []Notification
	Total         int
	Page          int
	PageSize      int
	TotalPages    int
}
