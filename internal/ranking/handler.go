package ranking

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hnstar/hnstar/internal/auth"
	"github.com/hnstar/hnstar/internal/ranking/entity"
	"github.com/hnstar/hnstar/internal/weberr"
)

// Handler exposes the ranking endpoints. Both endpoints authenticate the
// request through the auth service before touching the store.
type Handler struct {
	svc    *Service
	auth   *auth.Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, authSvc *auth.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, auth: authSvc, logger: logger}
}

// Set handles the ranking mutation batch.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	id, err := h.auth.Authenticate(r.Context(), r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var batch []entity.SetStory
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.writeError(w, weberr.Validation("invalid payload"))
		return
	}
	if err := h.svc.SetRankings(r.Context(), id.UserID, batch); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Query handles the filtered ranking query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	id, err := h.auth.Authenticate(r.Context(), r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var f Filter
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		h.writeError(w, weberr.Validation("invalid payload"))
		return
	}
	rows, err := h.svc.QueryStories(r.Context(), id.UserID, f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	we := weberr.From(err)
	if we.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Errorw("ranking request failed", "kind", we.Kind.String(), "err", we.Err)
	} else {
		h.logger.Debugw("ranking request rejected", "kind", we.Kind.String(), "msg", we.Message)
	}
	h.writeJSON(w, we.HTTPStatus(), map[string]string{"error": we.Message})
}
