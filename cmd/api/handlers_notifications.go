package main

import (
	"net/http"
	"strconv"

	"repfy/httpx"
	"repfy/notification"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	page, pageSize := httpx.Page(r, 20, 100)
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unreadOnly"))

	res, err := s.notificationService.List(r.Context(), notification.ListFilters{
		UserID:     claims.UserID,
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := notificationListResponse{
		Notifications: make([]notificationResponse, 0, len(res.Notifications)),
		Total:         res.Total,
		Page:          res.Page,
		PageSize:      res.PageSize,
		TotalPages:    res.TotalPages,
	}
	for _, n := range res.Notifications {
		resp.Notifications = append(resp.Notifications, newNotificationResponse(n))
	}
	httpx.OK(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	n, err := s.notificationService.MarkRead(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, newNotificationResponse(n))
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentClaims(w, r)
	if !ok {
		return
	}

	if _, err := s.notificationService.MarkAllRead(r.Context(), claims.UserID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "All notifications marked as read")
}
