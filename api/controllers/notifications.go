package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zauberjournal/journal-api/api/responses"
	"github.com/zauberjournal/journal-api/api/validators"
	"github.com/zauberjournal/journal-api/internal/notifications"
	"github.com/zauberjournal/journal-api/pkg/enums"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

type notificationListResponse struct {
	Items []notifications.Notification `json:"items"`
}

type createNotificationRequest struct {
	Message    string `json:"message" validate:"required,max=500"`
	Type       string `json:"type" validate:"omitempty,notification_type"`
	DurationMs *int64 `json:"durationMs" validate:"omitempty,gte=0"`
}

// ListNotifications returns the active notifications in insertion order.
func ListNotifications(center notifications.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification center unavailable"))
			return
		}
		items := center.List()
		if items == nil {
			items = []notifications.Notification{}
		}
		responses.WriteSuccess(w, notificationListResponse{Items: items})
	}
}

// CreateNotification queues a notification. The response is the same whether
// or not an identical active notification suppressed it.
func CreateNotification(center notifications.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification center unavailable"))
			return
		}

		var req createNotificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.NotificationTypeInfo
		if strings.TrimSpace(req.Type) != "" {
			parsed, err := enums.ParseNotificationType(req.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			kind = parsed
		}

		duration := center.DefaultDuration(kind)
		if req.DurationMs != nil {
			duration = time.Duration(*req.DurationMs) * time.Millisecond
		}

		center.Add(r.Context(), req.Message, kind, duration)
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"accepted": true})
	}
}

// DeleteNotification dismisses a notification. Unknown ids succeed.
func DeleteNotification(center notifications.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification center unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "notificationId"))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification id").
				WithDetails(map[string]string{"notificationId": "must be a positive integer"}))
			return
		}

		center.Remove(r.Context(), id)
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

// ResetNotifications clears every active notification and pending timer.
func ResetNotifications(center notifications.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification center unavailable"))
			return
		}
		center.Reset(r.Context())
		responses.WriteSuccess(w, map[string]bool{"reset": true})
	}
}
