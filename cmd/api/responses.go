package main

import (
	"time"

	"repfy/auth"
	"repfy/category"
	"repfy/notification"
	"repfy/professional"
	"repfy/review"
	"repfy/servicerequest"
	"repfy/user"
)

// Response DTOs keep JSON shape decisions out of the domain packages. Times
// are RFC3339 strings.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func newUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

type authResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type clientProfileResponse struct {
	ID      string  `json:"id"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zipCode"`
}

type professionalSummaryResponse struct {
	ID           string   `json:"id"`
	Bio          *string  `json:"bio"`
	PricingType  string   `json:"pricingType"`
	HourlyRate   *float64 `json:"hourlyRate"`
	Verified     bool     `json:"verified"`
	Rating       float64  `json:"rating"`
	TotalReviews int      `json:"totalReviews"`
}

func newProfessionalSummaryResponse(p *user.ProfessionalSummary) *professionalSummaryResponse {
	if p == nil {
		return nil
	}
	return &professionalSummaryResponse{
		ID:           p.ID,
		Bio:          p.Bio,
		PricingType:  p.PricingType,
		HourlyRate:   p.HourlyRate,
		Verified:     p.Verified,
		Rating:       p.Rating,
		TotalReviews: p.ReviewCount,
	}
}

type profileResponse struct {
	userResponse
	Client       *clientProfileResponse       `json:"client,omitempty"`
	Professional *professionalSummaryResponse `json:"professional,omitempty"`
}

func newProfileResponse(p user.Profile) profileResponse {
	resp := profileResponse{
		userResponse: userResponse{
			ID:        p.ID,
			Email:     p.Email,
			Name:      p.Name,
			Phone:     p.Phone,
			Avatar:    p.Avatar,
			Role:      string(p.Role),
			Status:    string(p.Status),
			CreatedAt: formatTime(p.CreatedAt),
			UpdatedAt: formatTime(p.UpdatedAt),
		},
		Professional: newProfessionalSummaryResponse(p.Professional),
	}
	if c := p.Client; c != nil {
		resp.Client = &clientProfileResponse{ID: c.ID, Address: c.Address, City: c.City, State: c.State, ZipCode: c.ZipCode}
	}
	return resp
}

type publicProfileResponse struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	Avatar       *string                      `json:"avatar"`
	Role         string                       `json:"role"`
	CreatedAt    string                       `json:"createdAt"`
	Professional *professionalSummaryResponse `json:"professional,omitempty"`
}

func newPublicProfileResponse(p user.PublicProfile) publicProfileResponse {
	return publicProfileResponse{
		ID:           p.ID,
		Name:         p.Name,
		Avatar:       p.Avatar,
		Role:         string(p.Role),
		CreatedAt:    formatTime(p.CreatedAt),
		Professional: newProfessionalSummaryResponse(p.Professional),
	}
}

type userSummaryResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type userListResponse struct {
	Users      []userSummaryResponse `json:"users"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}

func newUserListResponse(res user.ListResult) userListResponse {
	items := make([]userSummaryResponse, 0, len(res.Users))
	for _, u := range res.Users {
		items = append(items, userSummaryResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      string(u.Role),
			Status:    string(u.Status),
			CreatedAt: formatTime(u.CreatedAt),
		})
	}
	return userListResponse{Users: items, Total: res.Total, Page: res.Page, PageSize: res.PageSize, TotalPages: res.TotalPages}
}

type categoryResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Description   *string            `json:"description"`
	Icon          *string            `json:"icon"`
	ParentID      *string            `json:"parentId"`
	Order         int                `json:"order"`
	Active        bool               `json:"active"`
	CreatedAt     string             `json:"createdAt"`
	UpdatedAt     string             `json:"updatedAt"`
	Subcategories []categoryResponse `json:"subcategories,omitempty"`
	Parent        *categoryResponse  `json:"parent,omitempty"`
}

func newCategoryResponse(c category.Category) categoryResponse {
	resp := categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Icon:        c.Icon,
		ParentID:    c.ParentID,
		Order:       c.Order,
		Active:      c.Active,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
	if len(c.Subcategories) > 0 {
		resp.Subcategories = newCategoryResponses(c.Subcategories)
	}
	if c.Parent != nil {
		parent := newCategoryResponse(*c.Parent)
		resp.Parent = &parent
	}
	return resp
}

func newCategoryResponses(items []category.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(items))
	for _, c := range items {
		out = append(out, newCategoryResponse(c))
	}
	return out
}

type categoryRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type offeredServiceResponse struct {
	ID             string               `json:"id"`
	ProfessionalID string               `json:"professionalId"`
	CategoryID     string               `json:"categoryId"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Price          *float64             `json:"price"`
	Active         bool                 `json:"active"`
	CreatedAt      string               `json:"createdAt"`
	Category       *categoryRefResponse `json:"category,omitempty"`
}

func newOfferedServiceResponse(o professional.OfferedService) offeredServiceResponse {
	resp := offeredServiceResponse{
		ID:             o.ID,
		ProfessionalID: o.ProfessionalID,
		CategoryID:     o.CategoryID,
		Title:          o.Title,
		Description:    o.Description,
		Price:          o.Price,
		Active:         o.Active,
		CreatedAt:      formatTime(o.CreatedAt),
	}
	if o.Category != nil {
		resp.Category = &categoryRefResponse{ID: o.Category.ID, Name: o.Category.Name, Slug: o.Category.Slug}
	}
	return resp
}

type slotPayload struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type portfolioItemResponse struct {
	ID             string  `json:"id"`
	ProfessionalID string  `json:"professionalId"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	ImageURL       string  `json:"imageUrl"`
	Order          int     `json:"order"`
	CreatedAt      string  `json:"createdAt"`
}

func newPortfolioItemResponse(p professional.PortfolioItem) portfolioItemResponse {
	return portfolioItemResponse{
		ID:             p.ID,
		ProfessionalID: p.ProfessionalID,
		Title:          p.Title,
		Description:    p.Description,
		ImageURL:       p.ImageURL,
		Order:          p.Order,
		CreatedAt:      formatTime(p.CreatedAt),
	}
}

type professionalUserResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

type professionalResponse struct {
	ID            string                    `json:"id"`
	UserID        string                    `json:"userId"`
	Bio           *string                   `json:"bio"`
	PricingType   string                    `json:"pricingType"`
	HourlyRate    *float64                  `json:"hourlyRate"`
	ServiceRadius *int                      `json:"serviceRadius"`
	Address       *string                   `json:"address"`
	City          *string                   `json:"city"`
	State         *string                   `json:"state"`
	ZipCode       *string                   `json:"zipCode"`
	Latitude      *float64                  `json:"latitude"`
	Longitude     *float64                  `json:"longitude"`
	Verified      bool                      `json:"verified"`
	Rating        float64                   `json:"rating"`
	TotalReviews  int                       `json:"totalReviews"`
	CreatedAt     string                    `json:"createdAt"`
	UpdatedAt     string                    `json:"updatedAt"`
	User          *professionalUserResponse `json:"user,omitempty"`
	Services      []offeredServiceResponse  `json:"services"`
	Availability  []slotPayload             `json:"availability,omitempty"`
	Portfolio     []portfolioItemResponse   `json:"portfolio,omitempty"`
}

func newProfessionalResponse(p professional.Professional) professionalResponse {
	resp := professionalResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Bio:           p.Bio,
		PricingType:   string(p.PricingType),
		HourlyRate:    p.HourlyRate,
		ServiceRadius: p.ServiceRadius,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		ZipCode:       p.ZipCode,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Verified:      p.Verified,
		Rating:        p.Rating,
		TotalReviews:  p.ReviewCount,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
		Services:      make([]offeredServiceResponse, 0, len(p.Services)),
	}
	if p.User != nil {
		resp.User = &professionalUserResponse{ID: p.User.ID, Name: p.User.Name, Avatar: p.User.Avatar}
	}
	for _, o := range p.Services {
		resp.Services = append(resp.Services, newOfferedServiceResponse(o))
	}
	for _, slot := range p.Availability {
		resp.Availability = append(resp.Availability, slotPayload{DayOfWeek: slot.DayOfWeek, StartTime: slot.StartTime, EndTime: slot.EndTime})
	}
	for _, item := range p.Portfolio {
		resp.Portfolio = append(resp.Portfolio, newPortfolioItemResponse(item))
	}
	return resp
}

type professionalSearchResponse struct {
	Professionals []professionalResponse `json:"professionals"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"pageSize"`
	TotalPages    int                    `json:"totalPages"`
}

type partyResponse struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Phone  *string `json:"phone,omitempty"`
}

func newPartyResponse(p *servicerequest.Party) *partyResponse {
	if p == nil {
		return nil
	}
	return &partyResponse{ID: p.ID, UserID: p.UserID, Name: p.Name, Avatar: p.Avatar, Phone: p.Phone}
}

type quoteResponse struct {
	ID                string         `json:"id"`
	ServiceRequestID  string         `json:"serviceRequestId"`
	ProfessionalID    string         `json:"professionalId"`
	Message           string         `json:"message"`
	Price             float64        `json:"price"`
	EstimatedDuration *string        `json:"estimatedDuration"`
	ValidUntil        string         `json:"validUntil"`
	Status            string         `json:"status"`
	CreatedAt         string         `json:"createdAt"`
	UpdatedAt         string         `json:"updatedAt"`
	Professional      *partyResponse `json:"professional,omitempty"`
}

func newQuoteResponse(q servicerequest.Quote) quoteResponse {
	return quoteResponse{
		ID:                q.ID,
		ServiceRequestID:  q.ServiceRequestID,
		ProfessionalID:    q.ProfessionalID,
		Message:           q.Message,
		Price:             q.Price,
		EstimatedDuration: q.EstimatedDuration,
		ValidUntil:        formatTime(q.ValidUntil),
		Status:            string(q.Status),
		CreatedAt:         formatTime(q.CreatedAt),
		UpdatedAt:         formatTime(q.UpdatedAt),
		Professional:      newPartyResponse(q.Professional),
	}
}

type requestResponse struct {
	ID             string               `json:"id"`
	ClientID       string               `json:"clientId"`
	ProfessionalID *string              `json:"professionalId"`
	CategoryID     string               `json:"categoryId"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Address        *string              `json:"address"`
	City           string               `json:"city"`
	State          string               `json:"state"`
	ZipCode        *string              `json:"zipCode"`
	PreferredDate  *string              `json:"preferredDate"`
	Budget         *float64             `json:"budget"`
	FinalPrice     *float64             `json:"finalPrice"`
	Status         string               `json:"status"`
	StartedAt      *string              `json:"startedAt"`
	CompletedAt    *string              `json:"completedAt"`
	CreatedAt      string               `json:"createdAt"`
	UpdatedAt      string               `json:"updatedAt"`
	Category       *categoryRefResponse `json:"category,omitempty"`
	Client         *partyResponse       `json:"client,omitempty"`
	Professional   *partyResponse       `json:"professional,omitempty"`
	Quotes         []quoteResponse      `json:"quotes"`
}

func newRequestResponse(r servicerequest.Request) requestResponse {
	resp := requestResponse{
		ID:             r.ID,
		ClientID:       r.ClientID,
		ProfessionalID: r.ProfessionalID,
		CategoryID:     r.CategoryID,
		Title:          r.Title,
		Description:    r.Description,
		Address:        r.Address,
		City:           r.City,
		State:          r.State,
		ZipCode:        r.ZipCode,
		PreferredDate:  formatTimePtr(r.PreferredDate),
		Budget:         r.Budget,
		FinalPrice:     r.FinalPrice,
		Status:         string(r.Status),
		StartedAt:      formatTimePtr(r.StartedAt),
		CompletedAt:    formatTimePtr(r.CompletedAt),
		CreatedAt:      formatTime(r.CreatedAt),
		UpdatedAt:      formatTime(r.UpdatedAt),
		Client:         newPartyResponse(r.Client),
		Professional:   newPartyResponse(r.Professional),
		Quotes:         make([]quoteResponse, 0, len(r.Quotes)),
	}
	if r.Category != nil {
		resp.Category = &categoryRefResponse{ID: r.Category.ID, Name: r.Category.Name, Slug: r.Category.Slug}
	}
	for _, q := range r.Quotes {
		resp.Quotes = append(resp.Quotes, newQuoteResponse(q))
	}
	return resp
}

type requestListResponse struct {
	Requests   []requestResponse `json:"requests"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type reviewAuthorResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

type reviewRequestResponse struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Category categoryRefResponse `json:"category"`
}

type reviewResponse struct {
	ID               string                 `json:"id"`
	ServiceRequestID string                 `json:"serviceRequestId"`
	AuthorID         string                 `json:"authorId"`
	TargetID         string                 `json:"targetId"`
	Rating           int                    `json:"rating"`
	Comment          *string                `json:"comment"`
	CreatedAt        string                 `json:"createdAt"`
	Author           *reviewAuthorResponse  `json:"author,omitempty"`
	ServiceRequest   *reviewRequestResponse `json:"serviceRequest,omitempty"`
}

func newReviewResponse(rv review.Review) reviewResponse {
	resp := reviewResponse{
		ID:               rv.ID,
		ServiceRequestID: rv.ServiceRequestID,
		AuthorID:         rv.AuthorID,
		TargetID:         rv.TargetID,
		Rating:           rv.Rating,
		Comment:          rv.Comment,
		CreatedAt:        formatTime(rv.CreatedAt),
	}
	if a := rv.Author; a != nil {
		resp.Author = &reviewAuthorResponse{ID: a.ID, Name: a.Name, Avatar: a.Avatar}
	}
	if req := rv.Request; req != nil {
		resp.ServiceRequest = &reviewRequestResponse{
			ID:       req.ID,
			Title:    req.Title,
			Category: categoryRefResponse{ID: req.CategoryID, Name: req.CategoryName},
		}
	}
	return resp
}

type reviewListResponse struct {
	Reviews    []reviewResponse `json:"reviews"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

type notificationResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Read      bool           `json:"read"`
	CreatedAt string         `json:"createdAt"`
}

func newNotificationResponse(n notification.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		Read:      n.Read,
		CreatedAt: formatTime(n.CreatedAt),
	}
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"pageSize"`
	TotalPages    int                    `json:"totalPages"`
}
