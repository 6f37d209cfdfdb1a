package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/LucasTS-42034/Progint/internal/auth"
	resp "github.com/LucasTS-42034/Progint/internal/lib/api/response"
	"github.com/LucasTS-42034/Progint/internal/lib/hasher"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
)

type Request struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
	Pass  string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Message string          `json:"message"`
	User    models.UserView `json:"user"`
}

type UserRegistrar interface {
	RegisterNewUser(ctx context.Context, email, name, pass string) (models.User, error)
}

// New godoc
// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user  body  register.Request  true  "name, email and password"
// @Success      201  {object}  register.Response
// @Failure      400  {object}  response.Response  "invalid body or duplicate email"
// @Failure      500  {object}  response.Response
// @Router       /register [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar UserRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ErrorCode(resp.CodeInvalidRequest, "failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(req.Email)

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := registrar.RegisterNewUser(ctx, req.Email, req.Name, req.Pass)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.ErrorCode(resp.CodeDuplicateEmail, "user already exists"))
			case errors.Is(err, hasher.ErrPasswordTooLong):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.ErrorCode(resp.CodeInvalidRequest, "password is too long"))
			default:
				log.Error("failed to register user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.ErrorCode(resp.CodeInternal, "internal error"))
			}

			return
		}

		log.Info("User registered", slog.Int64("id", user.ID))

		ResponseCreated(w, r, user)
	}
}

func ResponseCreated(w http.ResponseWriter, r *http.Request, user models.User) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  "user registered",
		User:     user.View(),
	})
}
