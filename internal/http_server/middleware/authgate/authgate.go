// Package authgate guards routes with bearer access tokens.
//
// A request without a token is answered 401 unauthenticated, an expired token
// 401 token_expired, and a token that fails to parse or verify 403 forbidden.
// Accepted requests carry the token's Identity in their context.
package authgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "github.com/LucasTS-42034/Progint/internal/lib/api/response"
	"github.com/LucasTS-42034/Progint/internal/lib/jwt"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
)

const bearerPrefix = "Bearer "

type TokenVerifier interface {
	Verify(token string) (jwt.Claims, error)
}

type Identity struct {
	UserID int64
	Email  string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func New(log *slog.Logger, verifier TokenVerifier) func(next http.Handler) http.Handler {
	log = log.With(
		slog.String("component", "middleware/authgate"),
	)

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			log := log.With(
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r)
			if !ok {
				log.Info("missing bearer token")

				w.Header().Set("WWW-Authenticate", `Bearer`)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.ErrorCode(resp.CodeUnauthenticated, "authentication required"))

				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				log.Info("token rejected", sl.Err(err))

				if errors.Is(err, jwt.ErrExpired) {
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="token expired"`)
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.ErrorCode(resp.CodeTokenExpired, "token expired, log in again"))

					return
				}

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.ErrorCode(resp.CodeForbidden, "invalid token"))

				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". Any other
// scheme counts as no token at all.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}
