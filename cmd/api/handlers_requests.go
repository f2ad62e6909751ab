package main

import (
	"net/http"
	"strconv"
	"strings"

	"repfy/httpx"
	"repfy/review"
	"repfy/servicerequest"
)

type createRequestRequest struct {
	CategoryID    string   `json:"categoryId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Address       *string  `json:"address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	ZipCode       *string  `json:"zipCode"`
	PreferredDate *string  `json:"preferredDate"`
	Budget        *float64 `json:"budget"`
}

type updateRequestStatusRequest struct {
	Status string `json:"status"`
}

type createQuoteRequest struct {
	Message           string  `json:"message"`
	Price             float64 `json:"price"`
	EstimatedDuration *string `json:"estimatedDuration"`
	ValidUntil        string  `json:"validUntil"`
}

type acceptQuoteResponse struct {
	Quote   quoteResponse   `json:"quote"`
	Request requestResponse `json:"serviceRequest"`
}

type createReviewRequest struct {
	ServiceRequestID string  `json:"serviceRequestId"`
	TargetID         string  `json:"targetId"`
	Rating           int     `json:"rating"`
	Comment          *string `json:"comment"`
}

func actorFrom(w http.ResponseWriter, r *http.Request) (servicerequest.Actor, bool) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return servicerequest.Actor{}, false
	}
	return servicerequest.Actor{UserID: claims.UserID, Role: claims.Role}, true
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req createRequestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	created, err := s.requestService.Create(r.Context(), servicerequest.CreateParams{
		ClientUserID:  actor.UserID,
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		City:          req.City,
		State:         req.State,
		Address:       req.Address,
		ZipCode:       req.ZipCode,
		PreferredDate: req.PreferredDate,
		Budget:        req.Budget,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, newRequestResponse(created))
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	page, pageSize := httpx.Page(r, 10, 100)
	q := r.URL.Query()
	open, _ := strconv.ParseBool(q.Get("open"))

	res, err := s.requestService.List(r.Context(), servicerequest.ListFilters{
		Actor:    actor,
		Status:   servicerequest.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Open:     open,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := requestListResponse{
		Requests:   make([]requestResponse, 0, len(res.Requests)),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
	for _, item := range res.Requests {
		resp.Requests = append(resp.Requests, newRequestResponse(item))
	}
	httpx.OK(w, http.StatusOK, resp)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.requestService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newRequestResponse(req))
}

func (s *Server) handleUpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body updateRequestStatusRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	updated, err := s.requestService.UpdateStatus(r.Context(), servicerequest.UpdateStatusParams{
		RequestID: r.PathValue("id"),
		Actor:     actor,
		Status:    servicerequest.Status(strings.ToUpper(strings.TrimSpace(body.Status))),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newRequestResponse(updated))
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var body createQuoteRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	quote, err := s.requestService.CreateQuote(r.Context(), servicerequest.CreateQuoteParams{
		RequestID:          r.PathValue("id"),
		ProfessionalUserID: actor.UserID,
		Message:            body.Message,
		Price:              body.Price,
		EstimatedDuration:  body.EstimatedDuration,
		ValidUntil:         body.ValidUntil,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, newQuoteResponse(quote))
}

func (s *Server) handleAcceptQuote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := s.requestService.AcceptQuote(r.Context(), servicerequest.AcceptQuoteParams{
		RequestID:    r.PathValue("id"),
		QuoteID:      r.PathValue("quoteId"),
		ClientUserID: actor.UserID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, acceptQuoteResponse{
		Quote:   newQuoteResponse(res.Quote),
		Request: newRequestResponse(res.Request),
	})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var body createReviewRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	created, err := s.reviewService.Create(r.Context(), review.CreateParams{
		ServiceRequestID: body.ServiceRequestID,
		AuthorID:         claims.UserID,
		TargetID:         body.TargetID,
		Rating:           body.Rating,
		Comment:          body.Comment,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, newReviewResponse(created))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Page(r, 10, 100)

	res, err := s.reviewService.ListByUser(r.Context(), r.PathValue("userId"), page, pageSize)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := reviewListResponse{
		Reviews:    make([]reviewResponse, 0, len(res.Reviews)),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
	for _, rv := range res.Reviews {
		resp.Reviews = append(resp.Reviews, newReviewResponse(rv))
	}
	httpx.OK(w, http.StatusOK, resp)
}
