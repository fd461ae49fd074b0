package handler

import (
	"encoding/json"
	"net/http"

	"gm-economy-api/internal/service"
	"gm-economy-api/pkg/apierror"
	"gm-economy-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	ledger  *service.LedgerService
	targets *service.TargetResolver
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(ledger *service.LedgerService, targets *service.TargetResolver) *WalletHandler {
	return &WalletHandler{
		ledger:  ledger,
		targets: targets,
	}
}

// targetRequest selects the targets of a bulk wallet operation: a single
// player and/or every member of a role.
type targetRequest struct {
	PlayerID string `json:"player_id"`
	RoleID   string `json:"role_id"`
}

// View handles GET /api/v1/wallets/{player_id}
//
// With ?ensure=1 the wallet is created first (the self-touch a player
// triggers by checking their own wallet); otherwise unknown players get a
// non-persisted placeholder.
func (h *WalletHandler) View(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "player_id")
	if playerID == "" {
		response.Error(w, apierror.BadRequest("player_id is required"))
		return
	}

	if r.URL.Query().Get("ensure") == "1" {
		displayName := r.URL.Query().Get("display_name")
		if _, err := h.ledger.Ensure(r.Context(), playerID, displayName); err != nil {
			response.Error(w, err)
			return
		}
	}

	view, err := h.ledger.View(r.Context(), playerID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, view)
}

// Create handles POST /api/v1/wallets
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.ledger.EnsureAll, "created")
}

// Reset handles POST /api/v1/wallets/reset
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.ledger.ResetAll, "reset")
}

// Delete handles DELETE /api/v1/wallets
func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.ledger.DeleteAll, "deleted")
}

type bulkFunc = service.BulkOperation

func (h *WalletHandler) bulk(w http.ResponseWriter, r *http.Request, op bulkFunc, effect string) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	targets, err := h.targets.Resolve(r.Context(), req.PlayerID, req.RoleID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to resolve targets"))
		return
	}

	if len(targets) == 0 {
		response.OK(w, map[string]interface{}{
			"touched": 0,
			effect:    0,
			"message": "No targets provided. Specify a player or a role.",
		})
		return
	}

	result, err := op(r.Context(), targets)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"touched": result.Touched,
		effect:    result.Affected,
	})
}
