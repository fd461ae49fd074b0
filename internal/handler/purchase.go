package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"gm-economy-api/internal/service"
	"gm-economy-api/pkg/apierror"
	"gm-economy-api/pkg/response"
)

// PurchaseHandler handles purchase HTTP requests.
type PurchaseHandler struct {
	purchases *service.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchases *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// purchaseRequest is the body of POST /api/v1/purchases. BuyerRoles and
// BuyerName are optional; when omitted they are resolved through the
// identity service. When the gateway supplies roles it must keep the
// buyer's own role order.
type purchaseRequest struct {
	BuyerID    string   `json:"buyer_id"`
	ItemID     string   `json:"item_id"`
	BuyerRoles []string `json:"buyer_roles,omitempty"`
	BuyerName  string   `json:"buyer_name,omitempty"`
}

// Purchase handles POST /api/v1/purchases
func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if req.BuyerID == "" || req.ItemID == "" {
		response.Error(w, apierror.BadRequest("buyer_id and item_id are required"))
		return
	}

	receipt, err := h.purchases.Purchase(r.Context(), req.BuyerID, req.ItemID, req.BuyerRoles, req.BuyerName)
	if err != nil {
		response.Error(w, purchaseError(err))
		return
	}

	response.OK(w, receipt)
}

// purchaseError maps purchase outcomes to API errors. All of these are
// expected results rendered as one-line messages, not faults.
func purchaseError(err error) error {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		return apierror.NotFound("That item doesn't exist.")
	case errors.Is(err, service.ErrSoldOut):
		return apierror.SoldOut("That item is out of stock.")
	case errors.Is(err, service.ErrLostRace):
		return apierror.LostRace("That item just sold out.")
	case errors.Is(err, service.ErrInsufficientFunds):
		return apierror.InsufficientFunds("You can't afford that.")
	default:
		return err
	}
}
