package handler

import (
	"context"
	"net/http"

	"sharespend/internal/session"
	"sharespend/internal/transport/httpserver/middleware"
	"sharespend/pkg/logger"
)

// Sessions hands out the loaded coordinator for a user.
type Sessions interface {
	Get(ctx context.Context, userID string, identity session.Identity) (*session.Coordinator, error)
}

type Handlers struct {
	Sessions Sessions
	log      logger.Logger
}

func New(sessions Sessions, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Discard()
	}
	return &Handlers{
		Sessions: sessions,
		log:      log,
	}
}

// coordinator resolves the caller's coordinator and writes the error response
// when it cannot.
func (h *Handlers) coordinator(w http.ResponseWriter, r *http.Request, op string) (*session.Coordinator, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return nil, false
	}

	c, err := h.Sessions.Get(r.Context(), user.ID, session.Identity{Email: user.Email, Name: user.Name})
	if err != nil {
		h.writeSessionError(w, op, err, "user_id", user.ID)
		return nil, false
	}
	return c, true
}
