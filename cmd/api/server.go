package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"repfy/auth"
	"repfy/category"
	"repfy/httpx"
	"repfy/logging"
	"repfy/metrics"
	"repfy/notification"
	"repfy/professional"
	"repfy/review"
	"repfy/servicerequest"
	"repfy/user"
)

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest, client auth.ClientInfo) (auth.AuthResult, error)
	Login(ctx context.Context, req auth.LoginRequest, client auth.ClientInfo) (auth.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) (auth.ForgotResult, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
	SetStatus(ctx context.Context, userID string, status auth.Status) (auth.User, error)
}

type userService interface {
	GetMe(ctx context.Context, userID string) (user.Profile, error)
	UpdateMe(ctx context.Context, userID string, params user.UpdateParams) (user.Profile, error)
	GetPublic(ctx context.Context, id string) (user.PublicProfile, error)
	List(ctx context.Context, filters user.ListFilters) (user.ListResult, error)
}

type categoryService interface {
	List(ctx context.Context, includeInactive bool) ([]category.Category, error)
	Get(ctx context.Context, id string) (category.Category, error)
	Create(ctx context.Context, params category.CreateParams) (category.Category, error)
	Update(ctx context.Context, id string, params category.UpdateParams) (category.Category, error)
	Delete(ctx context.Context, id string) (category.Category, error)
}

type professionalService interface {
	UpdateProfile(ctx context.Context, userID string, params professional.UpdateParams) (professional.Professional, error)
	AddService(ctx context.Context, userID string, params professional.AddServiceParams) (professional.OfferedService, error)
	SetAvailability(ctx context.Context, userID string, slots []professional.Slot) (int, error)
	AddPortfolioItem(ctx context.Context, userID string, params professional.AddPortfolioItemParams) (professional.PortfolioItem, error)
	Search(ctx context.Context, filters professional.SearchFilters) (professional.SearchResult, error)
	Get(ctx context.Context, id string) (professional.Professional, error)
}

type requestService interface {
	Create(ctx context.Context, params servicerequest.CreateParams) (servicerequest.Request, error)
	List(ctx context.Context, filters servicerequest.ListFilters) (servicerequest.ListResult, error)
	Get(ctx context.Context, id string) (servicerequest.Request, error)
	UpdateStatus(ctx context.Context, params servicerequest.UpdateStatusParams) (servicerequest.Request, error)
	CreateQuote(ctx context.Context, params servicerequest.CreateQuoteParams) (servicerequest.Quote, error)
	AcceptQuote(ctx context.Context, params servicerequest.AcceptQuoteParams) (servicerequest.AcceptResult, error)
}

type reviewService interface {
	Create(ctx context.Context, params review.CreateParams) (review.Review, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) (review.ListResult, error)
}

type notificationService interface {
	List(ctx context.Context, filters notification.ListFilters) (notification.ListResult, error)
	MarkRead(ctx context.Context, id, userID string) (notification.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// Server holds the HTTP handlers and their collaborators. Every service is
// an interface so handlers can be tested against stubs.
type Server struct {
	log     logging.Logger
	tokens  auth.AccessVerifier
	metrics *metrics.Metrics

	authService         authService
	userService         userService
	categoryService     categoryService
	professionalService professionalService
	requestService      requestService
	reviewService       reviewService
	notificationService notificationService

	exposeResetToken bool
	logResetToken    bool
	frontendURL      string
}

func (s *Server) logger() logging.Logger {
	if s.log == nil {
		return logging.Discard()
	}
	return s.log
}

// routes builds the full handler: the API mux wrapped in recovery, request
// logging and metrics.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(s.tokens)(h)
	}
	withRole := func(h http.HandlerFunc, roles ...auth.Role) http.Handler {
		return auth.RequireAuth(s.tokens)(auth.RequireRole(roles...)(h))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/auth/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", s.handleResetPassword)

	mux.Handle("GET /api/users/me", authed(s.handleGetMe))
	mux.Handle("PUT /api/users/me", authed(s.handleUpdateMe))
	mux.Handle("PUT /api/users/me/password", authed(s.handleChangePassword))
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.Handle("GET /api/users", withRole(s.handleListUsers, auth.RoleAdmin))
	mux.Handle("PATCH /api/users/{id}/status", withRole(s.handleSetUserStatus, auth.RoleAdmin))

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.Handle("POST /api/categories", withRole(s.handleCreateCategory, auth.RoleAdmin))
	mux.Handle("PUT /api/categories/{id}", withRole(s.handleUpdateCategory, auth.RoleAdmin))
	mux.Handle("DELETE /api/categories/{id}", withRole(s.handleDeleteCategory, auth.RoleAdmin))

	mux.HandleFunc("GET /api/professionals/search", s.handleSearchProfessionals)
	mux.HandleFunc("GET /api/professionals/{id}", s.handleGetProfessional)
	mux.Handle("PUT /api/professionals/profile", withRole(s.handleUpdateProfessional, auth.RoleProfessional))
	mux.Handle("POST /api/professionals/services", withRole(s.handleAddService, auth.RoleProfessional))
	mux.Handle("PUT /api/professionals/availability", withRole(s.handleSetAvailability, auth.RoleProfessional))
	mux.Handle("POST /api/professionals/portfolio", withRole(s.handleAddPortfolioItem, auth.RoleProfessional))

	mux.Handle("POST /api/service-requests", withRole(s.handleCreateRequest, auth.RoleClient))
	mux.Handle("GET /api/service-requests", authed(s.handleListRequests))
	mux.Handle("GET /api/service-requests/{id}", authed(s.handleGetRequest))
	mux.Handle("PATCH /api/service-requests/{id}/status", authed(s.handleUpdateRequestStatus))
	mux.Handle("POST /api/service-requests/{id}/quotes", withRole(s.handleCreateQuote, auth.RoleProfessional))
	mux.Handle("POST /api/service-requests/{id}/quotes/{quoteId}/accept", withRole(s.handleAcceptQuote, auth.RoleClient))

	mux.Handle("POST /api/reviews", authed(s.handleCreateReview))
	mux.HandleFunc("GET /api/reviews/user/{userId}", s.handleListReviews)

	mux.Handle("GET /api/notifications", authed(s.handleListNotifications))
	mux.Handle("PATCH /api/notifications/{id}/read", authed(s.handleMarkNotificationRead))
	mux.Handle("POST /api/notifications/read-all", authed(s.handleMarkAllNotificationsRead))

	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = s.recoverPanics(h)
	h = s.logRequests(h)
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Repfy API is running",
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	httpx.Fail(w, http.StatusNotFound, "Route not found")
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger().Error(r.Context(), "panic in handler", "method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(rec))
				httpx.Internal(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		s.logger().Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

// run serves until ctx is cancelled, then drains in-flight requests within
// shutdownTimeout.
func run(ctx context.Context, srv *http.Server, log logging.Logger, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		log.Info(shutdownCtx, "http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func clientInfo(r *http.Request) auth.ClientInfo {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return auth.ClientInfo{IPAddress: host, UserAgent: r.UserAgent()}
}

// currentClaims returns the caller's claims. Routes reaching it are wrapped in
// RequireAuth, so a miss means a wiring bug and is answered with 401.
func currentClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
	}
	return claims, ok
}
