package middleware

import (
	"net/http"
	"strings"

	"github.com/jane4246/coffee-advisory/auth"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tok := bearerToken(r)
		if tok == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		userID, err := auth.ParseToken(tok)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r.WithContext(utils.WithUserID(r.Context(), userID)), ps)
	}
}

// OptionalAuth attaches the user id when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if tok := bearerToken(r); tok != "" {
			if userID, err := auth.ParseToken(tok); err == nil {
				r = r.WithContext(utils.WithUserID(r.Context(), userID))
			}
		}
		next(w, r, ps)
	}
}
