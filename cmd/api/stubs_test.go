package main

import (
	"context"
	"errors"

	"repfy/auth"
	"repfy/category"
	"repfy/notification"
	"repfy/professional"
	"repfy/review"
	"repfy/servicerequest"
	"repfy/user"
)

type stubVerifier map[string]auth.Claims

func (s stubVerifier) VerifyAccess(token string) (auth.Claims, error) {
	claims, ok := s[token]
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return claims, nil
}

type stubAuthService struct {
	result       auth.AuthResult
	err          error
	accessToken  string
	forgot       auth.ForgotResult
	user         auth.User
	lastRegister auth.RegisterRequest
	lastClient   auth.ClientInfo
	lastStatus   auth.Status
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest, client auth.ClientInfo) (auth.AuthResult, error) {
	s.lastRegister = req
	s.lastClient = client
	return s.result, s.err
}

func (s *stubAuthService) Login(_ context.Context, _ auth.LoginRequest, client auth.ClientInfo) (auth.AuthResult, error) {
	s.lastClient = client
	return s.result, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, _ string) (string, error) {
	return s.accessToken, s.err
}

func (s *stubAuthService) Logout(_ context.Context, _ string) error {
	return s.err
}

func (s *stubAuthService) ForgotPassword(_ context.Context, _ string) (auth.ForgotResult, error) {
	return s.forgot, s.err
}

func (s *stubAuthService) ResetPassword(_ context.Context, _, _ string) error {
	return s.err
}

func (s *stubAuthService) ChangePassword(_ context.Context, _, _, _ string) error {
	return s.err
}

func (s *stubAuthService) SetStatus(_ context.Context, _ string, status auth.Status) (auth.User, error) {
	s.lastStatus = status
	return s.user, s.err
}

type stubUserService struct {
	profile    user.Profile
	public     user.PublicProfile
	list       user.ListResult
	err        error
	lastUserID string
	lastList   user.ListFilters
}

func (s *stubUserService) GetMe(_ context.Context, userID string) (user.Profile, error) {
	s.lastUserID = userID
	return s.profile, s.err
}

func (s *stubUserService) UpdateMe(_ context.Context, userID string, _ user.UpdateParams) (user.Profile, error) {
	s.lastUserID = userID
	return s.profile, s.err
}

func (s *stubUserService) GetPublic(_ context.Context, _ string) (user.PublicProfile, error) {
	return s.public, s.err
}

func (s *stubUserService) List(_ context.Context, filters user.ListFilters) (user.ListResult, error) {
	s.lastList = filters
	return s.list, s.err
}

type stubCategoryService struct {
	items    []category.Category
	item     category.Category
	err      error
	lastID   string
	inactive bool
}

func (s *stubCategoryService) List(_ context.Context, includeInactive bool) ([]category.Category, error) {
	s.inactive = includeInactive
	return s.items, s.err
}

func (s *stubCategoryService) Get(_ context.Context, id string) (category.Category, error) {
	s.lastID = id
	return s.item, s.err
}

func (s *stubCategoryService) Create(_ context.Context, _ category.CreateParams) (category.Category, error) {
	return s.item, s.err
}

func (s *stubCategoryService) Update(_ context.Context, id string, _ category.UpdateParams) (category.Category, error) {
	s.lastID = id
	return s.item, s.err
}

func (s *stubCategoryService) Delete(_ context.Context, id string) (category.Category, error) {
	s.lastID = id
	return s.item, s.err
}

type stubProfessionalService struct {
	profile       professional.Professional
	service       professional.OfferedService
	item          professional.PortfolioItem
	search        professional.SearchResult
	count         int
	err           error
	lastSlots     []professional.Slot
	lastFilters   professional.SearchFilters
	lastUpdate    professional.UpdateParams
	lastPortfolio professional.AddPortfolioItemParams
}

func (s *stubProfessionalService) UpdateProfile(_ context.Context, _ string, params professional.UpdateParams) (professional.Professional, error) {
	s.lastUpdate = params
	return s.profile, s.err
}

func (s *stubProfessionalService) AddService(_ context.Context, _ string, _ professional.AddServiceParams) (professional.OfferedService, error) {
	return s.service, s.err
}

func (s *stubProfessionalService) SetAvailability(_ context.Context, _ string, slots []professional.Slot) (int, error) {
	s.lastSlots = slots
	return s.count, s.err
}

func (s *stubProfessionalService) AddPortfolioItem(_ context.Context, _ string, params professional.AddPortfolioItemParams) (professional.PortfolioItem, error) {
	s.lastPortfolio = params
	return s.item, s.err
}

func (s *stubProfessionalService) Search(_ context.Context, filters professional.SearchFilters) (professional.SearchResult, error) {
	s.lastFilters = filters
	return s.search, s.err
}

func (s *stubProfessionalService) Get(_ context.Context, _ string) (professional.Professional, error) {
	return s.profile, s.err
}

type stubRequestService struct {
	request    servicerequest.Request
	list       servicerequest.ListResult
	quote      servicerequest.Quote
	accept     servicerequest.AcceptResult
	err        error
	lastCreate servicerequest.CreateParams
	lastList   servicerequest.ListFilters
	lastStatus servicerequest.UpdateStatusParams
	lastQuote  servicerequest.CreateQuoteParams
	lastAccept servicerequest.AcceptQuoteParams
}

func (s *stubRequestService) Create(_ context.Context, params servicerequest.CreateParams) (servicerequest.Request, error) {
	s.lastCreate = params
	return s.request, s.err
}

func (s *stubRequestService) List(_ context.Context, filters servicerequest.ListFilters) (servicerequest.ListResult, error) {
	s.lastList = filters
	return s.list, s.err
}

func (s *stubRequestService) Get(_ context.Context, _ string) (servicerequest.Request, error) {
	return s.request, s.err
}

func (s *stubRequestService) UpdateStatus(_ context.Context, params servicerequest.UpdateStatusParams) (servicerequest.Request, error) {
	s.lastStatus = params
	return s.request, s.err
}

func (s *stubRequestService) CreateQuote(_ context.Context, params servicerequest.CreateQuoteParams) (servicerequest.Quote, error) {
	s.lastQuote = params
	return s.quote, s.err
}

func (s *stubRequestService) AcceptQuote(_ context.Context, params servicerequest.AcceptQuoteParams) (servicerequest.AcceptResult, error) {
	s.lastAccept = params
	return s.accept, s.err
}

type stubReviewService struct {
	review     review.Review
	list       review.ListResult
	err        error
	lastCreate review.CreateParams
	lastUser   string
}

func (s *stubReviewService) Create(_ context.Context, params review.CreateParams) (review.Review, error) {
	s.lastCreate = params
	return s.review, s.err
}

func (s *stubReviewService) ListByUser(_ context.Context, userID string, _, _ int) (review.ListResult, error) {
	s.lastUser = userID
	return s.list, s.err
}

type stubNotificationService struct {
	list       notification.ListResult
	item       notification.Notification
	updated    int64
	err        error
	lastList   notification.ListFilters
	lastUserID string
}

func (s *stubNotificationService) List(_ context.Context, filters notification.ListFilters) (notification.ListResult, error) {
	s.lastList = filters
	return s.list, s.err
}

func (s *stubNotificationService) MarkRead(_ context.Context, _ string, userID string) (notification.Notification, error) {
	s.lastUserID = userID
	return s.item, s.err
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, userID string) (int64, error) {
	s.lastUserID = userID
	return s.updated, s.err
}

type panicCategoryService struct{ stubCategoryService }

func (p *panicCategoryService) List(_ context.Context, _ bool) ([]category.Category, error) {
	panic(errors.New("boom"))
}
