package middleware

import (
	"context"

	"github.com/zauberjournal/journal-api/pkg/enums"
)

type contextKey int

const (
	actorKey contextKey = iota
	ctxRequestID
)

// Actor is the caller established by Auth.
type Actor struct {
	Subject string
	Role    enums.Role
}

// WithActor stores the authenticated subject and role on ctx.
func WithActor(ctx context.Context, subject string, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey, Actor{Subject: subject, Role: role})
}

// ActorFromContext reports false for anonymous requests.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

func SubjectFromContext(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.Subject
}

func RoleFromContext(ctx context.Context) enums.Role {
	actor, _ := ActorFromContext(ctx)
	return actor.Role
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}
