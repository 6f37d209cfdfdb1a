package params

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
)

// ID returns the {id} URL parameter. ok is false when it is not a positive integer,
// which can never name a stored user.
func ID(r *http.Request) (id int64, ok bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
