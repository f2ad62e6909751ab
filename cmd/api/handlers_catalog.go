package main

import (
	"net/http"
	"strconv"

	"repfy/category"
	"repfy/httpx"
	"repfy/professional"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("includeInactive"))

	items, err := s.categoryService.List(r.Context(), includeInactive)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newCategoryResponses(items))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.categoryService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newCategoryResponse(c))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var params category.CreateParams
	if err := httpx.DecodeJSON(r, &params); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	c, err := s.categoryService.Create(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, newCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var params category.UpdateParams
	if err := httpx.DecodeJSON(r, &params); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	c, err := s.categoryService.Update(r.Context(), r.PathValue("id"), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newCategoryResponse(c))
}

// handleDeleteCategory deactivates the category; rows are never removed.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.categoryService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newCategoryResponse(c))
}

type updateProfessionalRequest struct {
	Bio           *string  `json:"bio"`
	PricingType   *string  `json:"pricingType"`
	HourlyRate    *float64 `json:"hourlyRate"`
	ServiceRadius *int     `json:"serviceRadius"`
	Address       *string  `json:"address"`
	City          *string  `json:"city"`
	State         *string  `json:"state"`
	ZipCode       *string  `json:"zipCode"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (req updateProfessionalRequest) params() professional.UpdateParams {
	p := professional.UpdateParams{
		Bio:           req.Bio,
		HourlyRate:    req.HourlyRate,
		ServiceRadius: req.ServiceRadius,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		ZipCode:       req.ZipCode,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	if req.PricingType != nil {
		pt := professional.PricingType(*req.PricingType)
		p.PricingType = &pt
	}
	return p
}

type addServiceRequest struct {
	CategoryID  string   `json:"categoryId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

type addPortfolioItemRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Order       *int    `json:"order"`
}

type setAvailabilityRequest struct {
	Availability []slotPayload `json:"availability"`
}

func (s *Server) handleSearchProfessionals(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Page(r, 10, 100)
	q := r.URL.Query()

	filters := professional.SearchFilters{
		CategoryID: q.Get("categoryId"),
		City:       q.Get("city"),
		State:      q.Get("state"),
		Page:       page,
		PageSize:   pageSize,
	}
	if raw := q.Get("minRating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.FailDetails(w, http.StatusBadRequest, "Validation failed", []string{"minRating must be a number"})
			return
		}
		filters.MinRating = rating
	}

	res, err := s.professionalService.Search(r.Context(), filters)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := professionalSearchResponse{
		Professionals: make([]professionalResponse, 0, len(res.Professionals)),
		Total:         res.Total,
		Page:          res.Page,
		PageSize:      res.PageSize,
		TotalPages:    res.TotalPages,
	}
	for _, p := range res.Professionals {
		resp.Professionals = append(resp.Professionals, newProfessionalResponse(p))
	}
	httpx.OK(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfessional(w http.ResponseWriter, r *http.Request) {
	p, err := s.professionalService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newProfessionalResponse(p))
}

func (s *Server) handleUpdateProfessional(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var req updateProfessionalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	p, err := s.professionalService.UpdateProfile(r.Context(), claims.UserID, req.params())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newProfessionalResponse(p))
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var req addServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	svc, err := s.professionalService.AddService(r.Context(), claims.UserID, professional.AddServiceParams{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, newOfferedServiceResponse(svc))
}

func (s *Server) handleAddPortfolioItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var req addPortfolioItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	item, err := s.professionalService.AddPortfolioItem(r.Context(), claims.UserID, professional.AddPortfolioItemParams{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Order:       req.Order,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, newPortfolioItemResponse(item))
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var req setAvailabilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	slots := make([]professional.Slot, 0, len(req.Availability))
	for _, p := range req.Availability {
		slots = append(slots, professional.Slot{DayOfWeek: p.DayOfWeek, StartTime: p.StartTime, EndTime: p.EndTime})
	}

	count, err := s.professionalService.SetAvailability(r.Context(), claims.UserID, slots)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]int{"count": count})
}
