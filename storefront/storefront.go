// Package storefront serves the shopper API: catalog, cart, checkout, toasts
// and the live feed.
package storefront

import (
	"net/http"

	"leviro/forms"
	"leviro/hub"
	"leviro/middleware"
	"leviro/models"
	"leviro/store"
	"leviro/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "storefront")

type Handler struct {
	Store *store.Store
	Hub   *hub.Hub
}

func sid(r *http.Request) string {
	return middleware.SessionID(r.Context())
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"loading":   h.Store.Loading(),
		"connected": h.Store.Connected(),
	})
}

func (h *Handler) Products(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.Store.Products())
}

func (h *Handler) Product(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, ok := h.Store.Product(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, status int) {
	ctx, s := r.Context(), sid(r)
	utils.RespondWithJSON(w, status, utils.M{
		"items": h.Store.Cart(ctx, s),
		"total": h.Store.CartTotal(ctx, s),
		"count": h.Store.CartCount(ctx, s),
	})
}

// Cart handles GET /api/cart
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeCart(w, r, http.StatusOK)
}

type addRequest struct {
	ProductID string      `json:"productId"`
	Size      models.Size `json:"size"`
}

// AddToCart handles POST /api/cart
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, ok := h.Store.Product(req.ProductID)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if _, err := h.Store.AddToCart(r.Context(), sid(r), p, req.Size); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Please select a size")
		return
	}
	h.writeCart(w, r, http.StatusCreated)
}

// UpdateCartItem handles PUT /api/cart/:itemId
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.Store.UpdateCartQuantity(r.Context(), sid(r), ps.ByName("itemId"), req.Quantity)
	h.writeCart(w, r, http.StatusOK)
}

// RemoveCartItem handles DELETE /api/cart/:itemId
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.Store.RemoveFromCart(r.Context(), sid(r), ps.ByName("itemId"))
	h.writeCart(w, r, http.StatusOK)
}

// ClearCart handles DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.Store.ClearCart(r.Context(), sid(r))
	h.writeCart(w, r, http.StatusOK)
}

// Checkout handles POST /api/checkout
//
// Response: 201 {"orderId": "ORD-123456"}, 422 {"errors": {field: message}}
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var c models.Customer
	if err := utils.DecodeJSON(w, r, &c); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := forms.Checkout(&c); len(errs) > 0 {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{"errors": errs})
		return
	}
	if h.Store.CartCount(r.Context(), sid(r)) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Your cart is empty")
		return
	}

	id, err := h.Store.PlaceOrder(r.Context(), sid(r), c)
	switch {
	case err == store.ErrCheckoutInProgress:
		utils.RespondWithError(w, http.StatusConflict, "Your order is already being placed")
	case err != nil:
		log.WithError(err).Error("checkout failed")
		utils.RespondWithError(w, http.StatusBadGateway, errors.Cause(err).Error())
	default:
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"orderId": id})
	}
}

// Districts handles GET /api/districts
func (h *Handler) Districts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, forms.Districts)
}

// Toasts handles GET /api/toasts, the toasts of the caller's session.
func (h *Handler) Toasts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.Store.Toasts(sid(r)))
}

// DismissToast handles DELETE /api/toasts/:id
func (h *Handler) DismissToast(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.Store.DismissToast(sid(r), ps.ByName("id")) {
		utils.RespondWithError(w, http.StatusNotFound, "Toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed handles GET /api/ws, a websocket of store events.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.Hub.Serve(w, r, sid(r))
}
