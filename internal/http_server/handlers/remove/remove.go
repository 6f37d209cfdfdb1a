package remove

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/LucasTS-42034/Progint/internal/http_server/middleware/authgate"
	"github.com/LucasTS-42034/Progint/internal/lib/api/params"
	resp "github.com/LucasTS-42034/Progint/internal/lib/api/response"
	sl "github.com/LucasTS-42034/Progint/internal/lib/logger/sl"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type UserRemover interface {
	Remove(ctx context.Context, id int64) (bool, error)
}

// New godoc
// @Summary      Delete a user
// @Description  Idempotent: deleting an unknown id still answers 200 with a notice.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "user id"
// @Success      200  {object}  remove.Response
// @Router       /{id} [delete]
func New(log *slog.Logger, remover UserRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.remove.New"

		identity, _ := authgate.IdentityFromContext(r.Context())

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int64("actor", identity.UserID),
		)

		id, ok := params.ID(r)
		if !ok {
			log.Info("invalid user id, nothing to remove")

			responseOK(w, r, false)

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		removed, err := remover.Remove(ctx, id)
		if err != nil {
			log.Error("failed to remove user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.ErrorCode(resp.CodeInternal, "internal error"))

			return
		}

		log.Info("remove handled", slog.Int64("uid", id), slog.Bool("removed", removed))

		responseOK(w, r, removed)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, removed bool) {
	msg := "user removed"
	if !removed {
		msg = "user not found, nothing removed"
	}

	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  msg,
	})
}
