package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"bookable/internal/availability"
	"bookable/internal/bookings/service"
	httputil "bookable/pkg/http"
	"bookable/pkg/logger"
	"bookable/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// BookingHandler exposes the token-scoped visitor routes alongside the
// host-side booking management routes. Visitor responses never leak owner
// identifiers or quota internals.
type BookingHandler struct {
	service  service.BookingService
	avail    availability.Service
	resolver availability.ConstraintResolver
	log      *logger.Logger
}

func NewBookingHandler(
	service service.BookingService,
	avail availability.Service,
	resolver availability.ConstraintResolver,
	log *logger.Logger,
) *BookingHandler {
	return &BookingHandler{
		service:  service,
		avail:    avail,
		resolver: resolver,
		log:      log,
	}
}

// publicLink is the visitor-facing projection of a link.
type publicLink struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	DurationMin      int    `json:"duration_min"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	TimeZone         string `json:"time_zone,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
}

type slotsResponse struct {
	Date  string           `json:"date"`
	Slots []model.TimeSlot `json:"slots"`
}

type dateResponse struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

func (h *BookingHandler) ResolveLink(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	link, err := h.resolver.Resolve(r.Context(), ps.ByName("token"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ResolveLink", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	view := publicLink{
		Title:            link.Title,
		Description:      link.Description,
		DurationMin:      link.DurationMin,
		StartDate:        link.StartDate,
		EndDate:          link.EndDate,
		TimeZone:         link.TimeZone,
		RequiresApproval: link.RequiresApproval,
	}
	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "ResolveLink", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) SlotsForDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "The 'date' query parameter is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SlotsForDate", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	slots, err := h.avail.SlotsForDate(r.Context(), ps.ByName("token"), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SlotsForDate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slotsResponse{Date: date, Slots: slots}); err != nil {
		h.log.Error("failed to write success response", "handler", "SlotsForDate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) DateAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "The 'date' query parameter is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "DateAvailability", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	available, err := h.avail.IsDateAvailable(r.Context(), ps.ByName("token"), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DateAvailability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, dateResponse{Date: date, Available: available}); err != nil {
		h.log.Error("failed to write success response", "handler", "DateAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var sub model.BookingSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Submit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Submit(r.Context(), ps.ByName("token"), &sub)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListForLink(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	linkID := r.URL.Query().Get("link_id")
	if linkID == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "The 'link_id' query parameter is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ListForLink", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForLink", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookings, total, err := h.service.ListForLink(r.Context(), linkID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForLink", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListForLink", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.applyTransition(w, r, ps, "Approve", h.service.Approve)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.applyTransition(w, r, ps, "Reject", h.service.Reject)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.applyTransition(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *BookingHandler) applyTransition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	name string,
	fn func(ctx context.Context, id string) (*model.Booking, error),
) {
	booking, err := fn(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/book/:token", h.ResolveLink)
	router.GET("/book/:token/slots", h.SlotsForDate)
	router.GET("/book/:token/availability", h.DateAvailability)
	router.POST("/book/:token", h.Submit)

	router.GET("/api/v1/bookings", h.ListForLink)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/approve", h.Approve)
	router.POST("/api/v1/bookings/id/:id/reject", h.Reject)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
}
