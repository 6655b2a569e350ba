package middleware

import (
	"errors"
	"net/http"

	"github.com/zauberjournal/journal-api/api/responses"
	pkgAuth "github.com/zauberjournal/journal-api/pkg/auth"
	"github.com/zauberjournal/journal-api/pkg/config"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

// Auth requires a valid admin JWT and puts its subject and role on the
// request context and the logger.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				rejectToken(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"), "")
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg, challenge := "invalid token", `Bearer error="invalid_token"`
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg, challenge = "token expired", `Bearer error="invalid_token", error_description="expired"`
				}
				rejectToken(w, r, logg, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg), challenge)
				return
			}

			ctx := WithActor(r.Context(), claims.Subject, claims.Role)
			if logg != nil {
				ctx = logg.WithSubject(ctx, claims.Subject)
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectToken(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error, challenge string) {
	if challenge == "" {
		challenge = "Bearer"
	}
	w.Header().Set("WWW-Authenticate", challenge)
	responses.WriteError(r.Context(), logg, w, err)
}
