package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hnstar/hnstar/internal/auth/entity"
	"github.com/hnstar/hnstar/internal/weberr"
)

// Handler exposes the HTTP endpoints of the authentication protocol.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse carries the new user id.
type RegisterResponse struct {
	UserID int32 `json:"user_id"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, weberr.Validation("invalid payload"))
		return
	}
	id, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, RegisterResponse{UserID: id})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req entity.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, weberr.Validation("invalid payload"))
		return
	}
	te, err := h.svc.SignIn(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, te)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), r); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	te, err := h.svc.Refresh(r.Context(), r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, te)
}

// ChangePasswordRequest carries the replacement password.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, weberr.Validation("invalid payload"))
		return
	}
	if err := h.svc.ChangePassword(r.Context(), r, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ProfileRequest carries the profile fields to update.
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, weberr.Validation("invalid payload"))
		return
	}
	if err := h.svc.ChangeProfile(r.Context(), r, req.Name, req.Email); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	we := weberr.From(err)
	if we.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Errorw("auth request failed", "kind", we.Kind.String(), "err", we.Err)
	} else {
		h.logger.Debugw("auth request rejected", "kind", we.Kind.String(), "msg", we.Message)
	}
	h.writeJSON(w, we.HTTPStatus(), map[string]string{"error": we.Message})
}
