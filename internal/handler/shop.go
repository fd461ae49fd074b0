package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gm-economy-api/internal/model"
	"gm-economy-api/internal/service"
	"gm-economy-api/pkg/apierror"
	"gm-economy-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ShopHandler handles catalog edit HTTP requests.
type ShopHandler struct {
	shop    *service.ShopService
	display *service.DisplayService
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(shop *service.ShopService, display *service.DisplayService) *ShopHandler {
	return &ShopHandler{
		shop:    shop,
		display: display,
	}
}

// upsertItemRequest is the body of PUT /shops/{catalog_id}/items/{item_id}.
// Stock uses the listing encoding: "-" for unlimited, digits otherwise.
type upsertItemRequest struct {
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Price       int64                        `json:"price"`
	Stock       model.StockAmount            `json:"stock"`
	PublicStock bool                         `json:"public_stock"`
	RoleStock   map[string]model.StockAmount `json:"role_stock,omitempty"`
}

// UpsertItem handles PUT /api/v1/shops/{catalog_id}/items/{item_id}
func (h *ShopHandler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	catalogID := chi.URLParam(r, "catalog_id")
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		response.Error(w, apierror.BadRequest("item_id is required"))
		return
	}

	var req upsertItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if req.Name == "" {
		response.Error(w, apierror.BadRequest("name is required"))
		return
	}
	if req.Price < 0 {
		response.Error(w, apierror.BadRequest("price cannot be negative"))
		return
	}

	created, err := h.shop.UpsertItem(r.Context(), catalogID, itemID, service.UpsertItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		PublicStock: req.PublicStock,
		RoleStock:   req.RoleStock,
	})
	if err != nil {
		response.Error(w, shopError(err))
		return
	}

	status := "updated"
	if created {
		status = "added"
	}
	response.OK(w, map[string]interface{}{
		"catalog_id": catalogID,
		"item_id":    itemID,
		"status":     status,
	})
}

// RemoveItem handles DELETE /api/v1/shops/{catalog_id}/items/{item_id}
func (h *ShopHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	catalogID := chi.URLParam(r, "catalog_id")
	itemID := chi.URLParam(r, "item_id")

	if err := h.shop.RemoveItem(r.Context(), catalogID, itemID); err != nil {
		response.Error(w, shopError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"catalog_id": catalogID,
		"item_id":    itemID,
		"status":     "removed",
	})
}

// configureRequest is the body of POST /shops/{catalog_id}/config.
// Omitted title and intro keep their current values.
type configureRequest struct {
	ChannelID int64  `json:"channel_id"`
	Title     string `json:"title,omitempty"`
	Intro     string `json:"intro,omitempty"`
}

// Configure handles POST /api/v1/shops/{catalog_id}/config
func (h *ShopHandler) Configure(w http.ResponseWriter, r *http.Request) {
	catalogID := chi.URLParam(r, "catalog_id")

	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if err := h.shop.ConfigureCatalog(r.Context(), catalogID, req.ChannelID, req.Title, req.Intro); err != nil {
		response.Error(w, shopError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"catalog_id": catalogID,
		"channel_id": strconv.FormatInt(req.ChannelID, 10),
		"status":     "configured",
	})
}

// Sync handles POST /api/v1/shops/{catalog_id}/sync
func (h *ShopHandler) Sync(w http.ResponseWriter, r *http.Request) {
	catalogID := chi.URLParam(r, "catalog_id")
	if !model.IsValidCatalog(catalogID) {
		response.Error(w, apierror.NotFound("unknown catalog"))
		return
	}

	if err := h.display.Sync(r.Context(), catalogID); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"catalog_id": catalogID,
		"status":     "synced",
	})
}

func shopError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownCatalog):
		return apierror.NotFound("unknown catalog")
	case errors.Is(err, service.ErrItemNotFound):
		return apierror.NotFound("item not found")
	default:
		return err
	}
}
