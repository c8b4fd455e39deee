package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/riverclinic/ubscare/pkg/types"
)

type contextKey string

const actorKey contextKey = "actor"

// authMiddleware resolves the bearer token to the acting identity and stores
// it on the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			s.writeError(w, types.NewAuthorizationError(types.ErrCodeUnauthorized, "sessão ausente"))
			return
		}

		actor, err := s.identity.Verify(token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom returns the authenticated actor stored by authMiddleware.
func actorFrom(r *http.Request) *types.Actor {
	actor, _ := r.Context().Value(actorKey).(*types.Actor)
	return actor
}
