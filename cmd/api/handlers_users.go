package main

import (
	"net/http"
	"strings"

	"repfy/auth"
	"repfy/httpx"
	"repfy/user"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	profile, err := s.userService.GetMe(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newProfileResponse(profile))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var params user.UpdateParams
	if err := httpx.DecodeJSON(r, &params); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	profile, err := s.userService.UpdateMe(r.Context(), claims.UserID, params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newProfileResponse(profile))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.authService.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Password updated successfully")
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := s.userService.GetPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newPublicProfileResponse(profile))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Page(r, 10, 100)
	q := r.URL.Query()

	res, err := s.userService.List(r.Context(), user.ListFilters{
		Role:     user.RoleFilter(q.Get("role")),
		Status:   auth.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newUserListResponse(res))
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	updated, err := s.authService.SetStatus(r.Context(), r.PathValue("id"), auth.Status(strings.ToUpper(req.Status)))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newUserResponse(updated))
}
