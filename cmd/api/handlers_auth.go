package main

import (
	"net/http"
	"net/url"

	"repfy/auth"
	"repfy/httpx"
)

const forgotPasswordMessage = "If the email exists, a password reset link has been sent"

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.authService.Register(r.Context(), req, clientInfo(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, authResponse{
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.authService.Login(r.Context(), req, clientInfo(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, authResponse{
		User:         newUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	access, err := s.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeTokenError(w, r, err, "Invalid or expired refresh token")
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Logged out successfully")
}

// handleForgotPassword answers identically for known and unknown emails. The
// token only leaves the process through the log or, outside production when
// enabled, the response body.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := forgotPasswordResponse{Success: true, Message: forgotPasswordMessage}
	if result.ResetToken != "" {
		if s.logResetToken {
			s.logger().Info(r.Context(), "password reset requested",
				"reset_link", s.frontendURL+"/redefinir-senha?token="+url.QueryEscape(result.ResetToken))
		}
		if s.exposeResetToken {
			resp.ResetToken = result.ResetToken
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeTokenError(w, r, err, "Invalid or expired reset token")
		return
	}
	httpx.Message(w, http.StatusOK, "Password reset successfully")
}
