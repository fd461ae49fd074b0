package handler

import (
	"encoding/json"
	"net/http"

	"gm-economy-api/internal/model"
	"gm-economy-api/internal/repository"
	"gm-economy-api/internal/service"
	"gm-economy-api/pkg/apierror"
	"gm-economy-api/pkg/response"
)

// AuthHandler exchanges host keys for session tokens.
type AuthHandler struct {
	sessions *service.SessionService
	hostKeys repository.HostKeyRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *service.SessionService, hostKeys repository.HostKeyRepository) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		hostKeys: hostKeys,
	}
}

type tokenRequest struct {
	HostKey string `json:"host_key"`
}

// GenerateToken handles POST /api/v1/auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if req.HostKey == "" {
		response.Error(w, apierror.BadRequest("host_key is required"))
		return
	}

	validation, err := h.hostKeys.ValidateHostKey(r.Context(), req.HostKey)
	if err != nil {
		response.Error(w, apierror.Unauthorized("Invalid host key"))
		return
	}

	token, err := h.sessions.GenerateToken(r.Context(), model.SessionData{
		HostKeyID: validation.HostKeyID,
		Label:     validation.Label,
	})
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, map[string]string{"token": token})
}

// RevokeToken handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header is required"))
		return
	}

	if err := h.sessions.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}
