// Package admin serves the dashboard API: order management, invoices and the
// product catalog. Every route sits behind middleware.Auth.
package admin

import (
	"bytes"
	"net/http"

	"leviro/forms"
	"leviro/hub"
	"leviro/invoice"
	"leviro/media"
	"leviro/models"
	"leviro/store"
	"leviro/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "admin")

type Handler struct {
	Store *store.Store
	Hub   *hub.Hub
}

func remoteFailure(w http.ResponseWriter, err error) {
	utils.RespondWithError(w, http.StatusBadGateway, errors.Cause(err).Error())
}

// Toasts handles GET /api/admin/toasts
func (h *Handler) Toasts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.Store.Toasts(store.AdminAudience))
}

// DismissToast handles DELETE /api/admin/toasts/:id
func (h *Handler) DismissToast(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.Store.DismissToast(store.AdminAudience, ps.ByName("id")) {
		utils.RespondWithError(w, http.StatusNotFound, "Toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed handles GET /api/admin/ws: catalog and order changes plus admin toasts.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.Hub.Serve(w, r, store.AdminAudience)
}

// Orders handles GET /api/admin/orders, newest first.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.Store.Orders())
}

// UpdateOrderStatus handles PUT /api/admin/orders/:id/status
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := ps.ByName("id")
	switch err := h.Store.UpdateOrderStatus(r.Context(), id, req.Status); {
	case err == store.ErrInvalidStatus:
		utils.RespondWithError(w, http.StatusBadRequest, "Status must be Pending or Delivered")
	case err == store.ErrNotFound:
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
	case err != nil:
		remoteFailure(w, err)
	default:
		o, _ := h.Store.Order(id)
		utils.RespondWithJSON(w, http.StatusOK, o)
	}
}

// Invoice handles GET /api/admin/orders/:id/invoice
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	o, ok := h.Store.Order(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	var buf bytes.Buffer
	if err := invoice.Render(&buf, o); err != nil {
		log.WithError(err).WithField("order", o.ID).Error("invoice rendering failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate invoice")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+o.ID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// CreateProduct handles POST /api/admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft models.ProductDraft
	if err := utils.DecodeJSON(w, r, &draft); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	errs := forms.Product(&draft)
	if _, bad := errs["image"]; !bad {
		image, err := media.Normalize(draft.Image)
		if err != nil {
			errs["image"] = err.Error()
		}
		draft.Image = image
	}
	if len(errs) > 0 {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{"errors": errs})
		return
	}

	p, err := h.Store.AddProduct(r.Context(), draft)
	if err != nil {
		remoteFailure(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /api/admin/products/:id with a partial product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if _, ok := h.Store.Product(id); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	var patch models.ProductPatch
	if err := utils.DecodeJSON(w, r, &patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	errs := forms.ProductPatch(&patch)
	if _, bad := errs["image"]; patch.Image != nil && !bad {
		image, err := media.Normalize(*patch.Image)
		if err != nil {
			errs["image"] = err.Error()
		}
		patch.Image = &image
	}
	if len(errs) > 0 {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{"errors": errs})
		return
	}

	if !h.Store.UpdateProduct(r.Context(), id, patch) {
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to update product")
		return
	}
	p, _ := h.Store.Product(id)
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /api/admin/products/:id
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch err := h.Store.DeleteProduct(r.Context(), ps.ByName("id")); {
	case err == store.ErrNotFound:
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
	case err != nil:
		remoteFailure(w, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
