package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/LucasTS-42034/Progint/internal/http_server/middleware/authgate"
	"github.com/LucasTS-42034/Progint/internal/lib/api/params"
	resp "github.com/LucasTS-42034/Progint/internal/lib/api/response"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
	"github.com/LucasTS-42034/Progint/internal/storage"
)

// Request lists the mutable fields; omitted ones are left unchanged.
type Request struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
}

type Response struct {
	resp.Response
	Message string          `json:"message"`
	User    models.UserView `json:"user"`
}

type UserUpdater interface {
	Update(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
}

// New godoc
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int             true  "user id"
// @Param        user  body  update.Request  true  "fields to change"
// @Success      200  {object}  update.Response
// @Failure      404  {object}  response.Response
// @Router       /{id} [put]
func New(log *slog.Logger, validate *validator.Validate, updater UserUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.update.New"

		identity, _ := authgate.IdentityFromContext(r.Context())

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int64("actor", identity.UserID),
		)

		id, ok := params.ID(r)
		if !ok {
			log.Info("invalid user id")

			responseNotFound(w, r)

			return
		}

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ErrorCode(resp.CodeInvalidRequest, "failed to decode request"))

			return
		}

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

		user, err := updater.Update(ctx, id, models.UserPatch{Name: req.Name})
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				responseNotFound(w, r)

				return
			}

			log.Error("failed to update user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.ErrorCode(resp.CodeInternal, "internal error"))

			return
		}

		log.Info("user updated", slog.Int64("uid", user.ID))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "user updated",
			User:     user.View(),
		})
	}
}

func responseNotFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, resp.ErrorCode(resp.CodeNotFound, "user not found"))
}
