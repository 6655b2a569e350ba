package controllers

import (
	"net/http"
	"time"

	"github.com/zauberjournal/journal-api/api/middleware"
	"github.com/zauberjournal/journal-api/api/responses"
	"github.com/zauberjournal/journal-api/pkg/instance"
)

type pingResponse struct {
	Scope      string    `json:"scope"`
	Instance   string    `json:"instance"`
	ServerTime time.Time `json:"serverTime"`
	Subject    string    `json:"subject,omitempty"`
	Role       string    `json:"role,omitempty"`
}

// PublicPing reports which replica answered, which helps when chasing
// per-instance state such as the notification list.
func PublicPing() http.HandlerFunc {
	id := instance.GetID()
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, pingResponse{Scope: "public", Instance: id, ServerTime: time.Now().UTC()})
	}
}

// AdminPing lets admin clients verify their token before editing.
func AdminPing() http.HandlerFunc {
	id := instance.GetID()
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())
		responses.WriteSuccess(w, pingResponse{
			Scope:      "admin",
			Instance:   id,
			ServerTime: time.Now().UTC(),
			Subject:    actor.Subject,
			Role:       string(actor.Role),
		})
	}
}
