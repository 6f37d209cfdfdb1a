package list

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/LucasTS-42034/Progint/internal/http_server/middleware/authgate"
	resp "github.com/LucasTS-42034/Progint/internal/lib/api/response"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
	"github.com/LucasTS-42034/Progint/internal/models"
)

type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// New godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.UserView
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       / [get]
func New(log *slog.Logger, lister UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.list.New"

		identity, _ := authgate.IdentityFromContext(r.Context())

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int64("actor", identity.UserID),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		users, err := lister.List(ctx)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.ErrorCode(resp.CodeInternal, "internal error"))

			return
		}

		log.Info("users listed", slog.Int("count", len(users)))

		render.JSON(w, r, models.Views(users))
	}
}
