package main

import (
	"errors"
	"net/http"

	"repfy/auth"
	"repfy/category"
	"repfy/httpx"
	"repfy/notification"
	"repfy/professional"
	"repfy/review"
	"repfy/servicerequest"
	"repfy/user"
	"repfy/validation"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// serviceErrors maps domain sentinels to HTTP responses. Order matters only
// where sentinels wrap each other; none currently do.
var serviceErrors = []errorMapping{
	{auth.ErrDuplicateEmail, http.StatusBadRequest, "User with this email already exists"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{auth.ErrInactiveAccount, http.StatusForbidden, "Account is not active"},
	{auth.ErrWrongPassword, http.StatusUnauthorized, "Current password is incorrect"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	{auth.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{user.ErrNotFound, http.StatusNotFound, "User not found"},

	{category.ErrNotFound, http.StatusNotFound, "Category not found"},
	{category.ErrDuplicateSlug, http.StatusBadRequest, "Category with this name already exists"},
	{category.ErrParentNotFound, http.StatusNotFound, "Parent category not found"},

	{professional.ErrNotFound, http.StatusNotFound, "Professional not found"},
	{professional.ErrProfileNotFound, http.StatusNotFound, "Professional profile not found"},
	{professional.ErrCategoryNotFound, http.StatusNotFound, "Category not found"},

	{servicerequest.ErrNotFound, http.StatusNotFound, "Service request not found"},
	{servicerequest.ErrQuoteNotFound, http.StatusNotFound, "Quote not found"},
	{servicerequest.ErrClientNotFound, http.StatusNotFound, "Client profile not found"},
	{servicerequest.ErrProfessionalNotFound, http.StatusNotFound, "Professional profile not found"},
	{servicerequest.ErrCategoryNotFound, http.StatusNotFound, "Category not found"},
	{servicerequest.ErrDuplicateQuote, http.StatusBadRequest, "You have already sent a quote for this request"},
	{servicerequest.ErrAlreadyAccepted, http.StatusBadRequest, "Another quote has already been accepted"},
	{servicerequest.ErrForbidden, http.StatusForbidden, "Forbidden - Insufficient permissions"},
	{servicerequest.ErrInvalidTransition, http.StatusBadRequest, "Invalid status transition"},
	{servicerequest.ErrNotAcceptingQuote, http.StatusBadRequest, "Service request is not accepting quotes"},
	{servicerequest.ErrQuoteNotPending, http.StatusBadRequest, "Quote is no longer pending"},
	{servicerequest.ErrQuoteExpired, http.StatusBadRequest, "Quote has expired"},

	{review.ErrRequestNotFound, http.StatusNotFound, "Service request not found"},
	{review.ErrIncomplete, http.StatusBadRequest, "Cannot review an incomplete service"},
	{review.ErrAlreadyReviewed, http.StatusBadRequest, "This service has already been reviewed"},
	{review.ErrNotAuthor, http.StatusForbidden, "Only the client of this service can review it"},
	{review.ErrBadTarget, http.StatusBadRequest, "Review target must be the assigned professional"},

	{notification.ErrNotFound, http.StatusNotFound, "Notification not found"},
}

// writeServiceError translates err into the response envelope. Unknown
// errors are logged and answered with a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var weak *auth.WeakPasswordError
	if errors.As(err, &weak) {
		httpx.FailDetails(w, http.StatusBadRequest, "Password does not meet requirements", weak.Reasons)
		return
	}
	if reasons, ok := validation.Reasons(err); ok {
		httpx.FailDetails(w, http.StatusBadRequest, "Validation failed", reasons)
		return
	}
	if errors.Is(err, httpx.ErrMalformedBody) {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			httpx.Fail(w, m.status, m.message)
			return
		}
	}

	s.logger().Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	httpx.Internal(w)
}

// writeTokenError is writeServiceError with a token-specific 401 message.
func (s *Server) writeTokenError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, auth.ErrInvalidToken) {
		httpx.Fail(w, http.StatusUnauthorized, message)
		return
	}
	s.writeServiceError(w, r, err)
}
