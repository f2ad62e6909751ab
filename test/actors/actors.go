// Package actors drives the marketplace services concurrently against a real
// database. Actors swallow the domain errors that contention is expected to
// produce and count everything else.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"repfy/auth"
	"repfy/notification"
	"repfy/review"
	"repfy/servicerequest"
)

// Stats counts actor outcomes. Unexpected errors are not fatal on their own:
// chaos kills backends, so transport failures are normal. Invariants are
// judged by the oracles.
type Stats struct {
	Accepted   atomic.Int64
	Quoted     atomic.Int64
	Completed  atomic.Int64
	Reviewed   atomic.Int64
	Logins     atomic.Int64
	Expected   atomic.Int64
	Unexpected atomic.Int64
	LastError  atomic.Value
}

func (s *Stats) record(err error, expected ...error) {
	if err == nil {
		return
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			s.Expected.Add(1)
			return
		}
	}
	s.Unexpected.Add(1)
	s.LastError.Store(err.Error())
}

func (s *Stats) String() string {
	last, _ := s.LastError.Load().(string)
	return fmt.Sprintf("accepted=%d quoted=%d completed=%d reviewed=%d logins=%d expected_errors=%d unexpected_errors=%d last=%q",
		s.Accepted.Load(), s.Quoted.Load(), s.Completed.Load(), s.Reviewed.Load(), s.Logins.Load(),
		s.Expected.Load(), s.Unexpected.Load(), last)
}

// Party is a seeded account able to act.
type Party struct {
	UserID   string
	Email    string
	Password string
}

// Market is the seeded world the actors share.
type Market struct {
	CategoryID    string
	Clients       []Party
	Professionals []Party
}

type Services struct {
	Auth          *auth.Service
	Requests      *servicerequest.Service
	Reviews       *review.Service
	Notifications *notification.Service
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

func jitter(base, spread int) {
	time.Sleep(time.Duration(base+rand.Intn(spread)) * time.Millisecond)
}

// Client opens requests, then tries to accept a random quote on each of its
// pending requests. Several Client actors share the same account so accepts
// on one request race.
func Client(ctx context.Context, svc Services, m Market, client Party, stats *Stats, stop <-chan struct{}) error {
	actor := servicerequest.Actor{UserID: client.UserID, Role: auth.RoleClient}
	for !stopped(ctx, stop) {
		if rand.Intn(4) == 0 {
			_, err := svc.Requests.Create(ctx, servicerequest.CreateParams{
				ClientUserID: client.UserID,
				CategoryID:   m.CategoryID,
				Title:        "Reparo de encanamento na cozinha",
				Description:  "Vazamento embaixo da pia, precisa trocar o sifao.",
				City:         "Recife",
				State:        "PE",
			})
			stats.record(err)
		}

		list, err := svc.Requests.List(ctx, servicerequest.ListFilters{Actor: actor, Status: servicerequest.StatusPending, PageSize: 20})
		if err != nil {
			stats.record(err)
			jitter(20, 30)
			continue
		}
		for _, req := range list.Requests {
			if len(req.Quotes) == 0 {
				continue
			}
			q := req.Quotes[rand.Intn(len(req.Quotes))]
			_, err := svc.Requests.AcceptQuote(ctx, servicerequest.AcceptQuoteParams{
				RequestID:    req.ID,
				QuoteID:      q.ID,
				ClientUserID: client.UserID,
			})
			if err == nil {
				stats.Accepted.Add(1)
				continue
			}
			stats.record(err,
				servicerequest.ErrQuoteNotPending,
				servicerequest.ErrNotAcceptingQuote,
				servicerequest.ErrAlreadyAccepted,
				servicerequest.ErrQuoteExpired,
			)
		}

		if rand.Intn(10) == 0 && len(list.Requests) > 0 {
			req := list.Requests[rand.Intn(len(list.Requests))]
			_, err := svc.Requests.UpdateStatus(ctx, servicerequest.UpdateStatusParams{
				RequestID: req.ID,
				Actor:     actor,
				Status:    servicerequest.StatusCancelled,
			})
			stats.record(err, servicerequest.ErrInvalidTransition)
		}
		jitter(10, 30)
	}
	return nil
}

// Professional quotes on open requests and completes the work assigned to it.
func Professional(ctx context.Context, svc Services, pro Party, stats *Stats, stop <-chan struct{}) error {
	actor := servicerequest.Actor{UserID: pro.UserID, Role: auth.RoleProfessional}
	for !stopped(ctx, stop) {
		open, err := svc.Requests.List(ctx, servicerequest.ListFilters{Actor: actor, Open: true, PageSize: 20})
		if err != nil {
			stats.record(err)
			jitter(20, 30)
			continue
		}
		for _, req := range open.Requests {
			_, err := svc.Requests.CreateQuote(ctx, servicerequest.CreateQuoteParams{
				RequestID:          req.ID,
				ProfessionalUserID: pro.UserID,
				Message:            "Consigo atender ainda esta semana.",
				Price:              float64(100 + rand.Intn(400)),
				ValidUntil:         time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
			})
			if err == nil {
				stats.Quoted.Add(1)
				continue
			}
			stats.record(err, servicerequest.ErrDuplicateQuote, servicerequest.ErrNotAcceptingQuote)
		}

		assigned, err := svc.Requests.List(ctx, servicerequest.ListFilters{Actor: actor, Status: servicerequest.StatusInProgress, PageSize: 20})
		if err != nil {
			stats.record(err)
			continue
		}
		for _, req := range assigned.Requests {
			if rand.Intn(2) == 0 {
				continue
			}
			_, err := svc.Requests.UpdateStatus(ctx, servicerequest.UpdateStatusParams{
				RequestID: req.ID,
				Actor:     actor,
				Status:    servicerequest.StatusCompleted,
			})
			if err == nil {
				stats.Completed.Add(1)
				continue
			}
			stats.record(err, servicerequest.ErrInvalidTransition)
		}
		jitter(10, 30)
	}
	return nil
}

// Reviewer has a client review its completed requests. Two reviewers on the
// same account race to review the same request.
func Reviewer(ctx context.Context, svc Services, client Party, stats *Stats, stop <-chan struct{}) error {
	actor := servicerequest.Actor{UserID: client.UserID, Role: auth.RoleClient}
	for !stopped(ctx, stop) {
		done, err := svc.Requests.List(ctx, servicerequest.ListFilters{Actor: actor, Status: servicerequest.StatusCompleted, PageSize: 20})
		if err != nil {
			stats.record(err)
			jitter(30, 40)
			continue
		}
		for _, req := range done.Requests {
			if req.ProfessionalUserID == nil {
				continue
			}
			_, err := svc.Reviews.Create(ctx, review.CreateParams{
				ServiceRequestID: req.ID,
				AuthorID:         client.UserID,
				TargetID:         *req.ProfessionalUserID,
				Rating:           1 + rand.Intn(5),
			})
			if err == nil {
				stats.Reviewed.Add(1)
				continue
			}
			stats.record(err, review.ErrAlreadyReviewed)
		}
		jitter(30, 40)
	}
	return nil
}

// Login signs a party in and refreshes its access token in a loop.
func Login(ctx context.Context, svc Services, p Party, stats *Stats, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		res, err := svc.Auth.Login(ctx, auth.LoginRequest{Email: p.Email, Password: p.Password}, auth.ClientInfo{UserAgent: "stress"})
		if err != nil {
			stats.record(err)
			jitter(50, 50)
			continue
		}
		stats.Logins.Add(1)
		_, err = svc.Auth.Refresh(ctx, res.RefreshToken)
		stats.record(err)
		if rand.Intn(2) == 0 {
			stats.record(svc.Auth.Logout(ctx, res.RefreshToken))
		}
		jitter(50, 50)
	}
	return nil
}

// Inbox reads and clears a party's notifications.
func Inbox(ctx context.Context, svc Services, p Party, stats *Stats, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		res, err := svc.Notifications.List(ctx, notification.ListFilters{UserID: p.UserID, UnreadOnly: true})
		stats.record(err)
		if err == nil && len(res.Notifications) > 0 {
			_, err := svc.Notifications.MarkRead(ctx, res.Notifications[0].ID, p.UserID)
			stats.record(err)
		}
		if rand.Intn(5) == 0 {
			_, err := svc.Notifications.MarkAllRead(ctx, p.UserID)
			stats.record(err)
		}
		jitter(40, 60)
	}
	return nil
}
