package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/utils"
)

// OwnerLookup returns the owner of the document identified by id
type OwnerLookup func(ctx context.Context, id string) (int64, error)

// OnlyOwner lets the request through when the authenticated principal owns
// the document named by the {param} URL parameter. It must run after Auth.
func OnlyOwner(param string, lookup OwnerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("Authentication required"))
				return
			}

			owner, err := lookup(r.Context(), chi.URLParam(r, param))
			if err != nil {
				utils.WriteError(w, errors.From(err))
				return
			}
			if owner != userID {
				utils.WriteError(w, errors.Forbidden("You can only modify your own documents"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
