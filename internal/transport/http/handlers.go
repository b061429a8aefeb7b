package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.Place(r.Context(), req.TableID, req.ItemID, req.Quantity)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetails(record, h.service.Now()))
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req setQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.SetQuantity(r.Context(), id, *req.Quantity)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetails(record, h.service.Now()))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetails(record, h.service.Now()))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Order(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetails(record, h.service.Now()))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Orders(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetailsList(records, h.service.Now()))
}

func (h *Handler) tableOrders(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}

	records, err := h.service.OrdersForTable(r.Context(), tableID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetailsList(records, h.service.Now()))
}

func (h *Handler) clearTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}

	records, err := h.service.ClearTable(r.Context(), tableID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toOrderDetailsList(records, h.service.Now()))
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.Tables(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tables)
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.MenuItems(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, items)
}

type validatable interface {
	Validate() error
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.respondError(w, http.StatusBadRequest, decodeMessage(err))
		return false
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (domain.OrderID, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return domain.OrderID(id), true
}

func (h *Handler) tableID(w http.ResponseWriter, r *http.Request) (domain.TableID, bool) {
	id, err := parseID(chi.URLParam(r, "tableID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid table id")
		return 0, false
	}
	return domain.TableID(id), true
}

func parseID(raw string) (uint32, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

// respondServiceError переводит доменные ошибки в HTTP-статусы.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsBadReference(err), errors.Is(err, domain.ErrInvalidQuantity):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		h.respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal JSON response")
		h.writeBody(w, http.StatusInternalServerError, []byte(`{"error":"internal server error"}`))
		return
	}
	h.writeBody(w, status, response)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.WithError(err).Debug("failed to write response")
	}
}
