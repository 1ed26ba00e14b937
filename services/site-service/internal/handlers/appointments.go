package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/booking"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
)

type bookRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	ServiceType     string `json:"serviceType"`
	Notes           string `json:"notes"`
}

type appointmentResponse struct {
	ID              int64                   `json:"id"`
	BusinessID      int64                   `json:"businessId"`
	CustomerName    string                  `json:"customerName"`
	CustomerEmail   string                  `json:"customerEmail,omitempty"`
	CustomerPhone   string                  `json:"customerPhone,omitempty"`
	AppointmentDate string                  `json:"appointmentDate"`
	AppointmentTime string                  `json:"appointmentTime"`
	ServiceType     string                  `json:"serviceType,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	Status          model.AppointmentStatus `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func toAppointment(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		BusinessID:      a.BusinessID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		AppointmentDate: schedule.FormatDate(a.AppointmentDate),
		AppointmentTime: a.AppointmentTime,
		ServiceType:     a.Service,
		Notes:           a.Notes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// publicAppointment is what an anonymous booker gets back.
type publicAppointment struct {
	ID              int64                   `json:"id"`
	CustomerName    string                  `json:"customerName"`
	AppointmentDate string                  `json:"appointmentDate"`
	AppointmentTime string                  `json:"appointmentTime"`
	Status          model.AppointmentStatus `json:"status"`
}

type slotsResponse struct {
	AvailableSlots []string `json:"availableSlots"`
	Message        string   `json:"message,omitempty"`
}

func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "businessId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.bookings.AvailableSlots(r.Context(), id, r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	slots := res.Slots
	if slots == nil {
		slots = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{AvailableSlots: slots, Message: res.Message})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "businessId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req bookRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.bookings.Book(r.Context(), booking.BookingRequest{
		BusinessID:      id,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Service:         req.ServiceType,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"appointment": publicAppointment{
		ID:              a.ID,
		CustomerName:    a.CustomerName,
		AppointmentDate: schedule.FormatDate(a.AppointmentDate),
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
	}})
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "businessId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := h.bookings.List(r.Context(), a, id, q.Get("date"), q.Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]appointmentResponse, 0, len(list))
	for _, appt := range list {
		out = append(out, toAppointment(appt))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "appointmentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appt, err := h.bookings.Get(r.Context(), a, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointment": toAppointment(appt)})
}

func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "appointmentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	appt, err := h.bookings.UpdateStatus(r.Context(), a, id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointment": toAppointment(appt)})
}
