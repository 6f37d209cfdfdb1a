package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/LucasTS-42034/Progint/internal/http_server/handlers/health"
	"github.com/LucasTS-42034/Progint/internal/http_server/handlers/list"
	"github.com/LucasTS-42034/Progint/internal/http_server/handlers/login"
	"github.com/LucasTS-42034/Progint/internal/http_server/handlers/register"
	"github.com/LucasTS-42034/Progint/internal/http_server/handlers/remove"
	"github.com/LucasTS-42034/Progint/internal/http_server/handlers/update"
	"github.com/LucasTS-42034/Progint/internal/http_server/middleware/authgate"
	mwLogger "github.com/LucasTS-42034/Progint/internal/http_server/middleware/logger"
	resp "github.com/LucasTS-42034/Progint/internal/lib/api/response"
)

type AuthService interface {
	register.UserRegistrar
	login.Authenticator
}

type UserService interface {
	list.UserLister
	update.UserUpdater
	remove.UserRemover
}

// NewRouter wires the public auth endpoints and the token-gated user endpoints.
func NewRouter(
	log *slog.Logger,
	authService AuthService,
	userService UserService,
	tokens authgate.TokenVerifier,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New(log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.ErrorCode(resp.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, resp.ErrorCode(resp.CodeInvalidRequest, "method not allowed"))
	})

	r.Get("/healthz", health.New())
	r.Post("/register", register.New(log, validate, authService))
	r.Post("/login", login.New(log, validate, authService))

	r.Group(func(r chi.Router) {
		r.Use(authgate.New(log, tokens))

		r.Get("/", list.New(log, userService))
		r.Put("/{id}", update.New(log, validate, userService))
		r.Delete("/{id}", remove.New(log, userService))
	})

	return r
}
