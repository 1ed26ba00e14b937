package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/business"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
)

type businessRequest struct {
	BusinessName  string                       `json:"businessName" validate:"required,max=120"`
	Slug          string                       `json:"slug"`
	Description   string                       `json:"description" validate:"max=2000"`
	Phone         string                       `json:"phone" validate:"max=40"`
	Email         string                       `json:"email" validate:"omitempty,email"`
	Address       string                       `json:"address" validate:"max=300"`
	BusinessHours map[string]schedule.DayHours `json:"businessHours"`
}

func (req businessRequest) profile() model.BusinessProfile {
	return model.BusinessProfile{
		Name:          req.BusinessName,
		Description:   req.Description,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		BusinessHours: schedule.Normalize(req.BusinessHours),
	}
}

type businessResponse struct {
	ID              int64                `json:"id"`
	OwnerID         int64                `json:"ownerId"`
	BusinessName    string               `json:"businessName"`
	Slug            string               `json:"slug"`
	SubdomainURL    string               `json:"subdomainUrl"`
	SubdirectoryURL string               `json:"subdirectoryUrl"`
	Description     string               `json:"description,omitempty"`
	Phone           string               `json:"phone,omitempty"`
	Email           string               `json:"email,omitempty"`
	Address         string               `json:"address,omitempty"`
	BusinessHours   schedule.WeeklyHours `json:"businessHours"`
	Status          model.ApprovalStatus `json:"status"`
	ViewCount       int64                `json:"viewCount"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func toBusiness(b model.Business) businessResponse {
	hours := b.BusinessHours
	if hours == nil {
		hours = schedule.WeeklyHours{}
	}
	return businessResponse{
		ID:              b.ID,
		OwnerID:         b.OwnerID,
		BusinessName:    b.Name,
		Slug:            b.Slug,
		SubdomainURL:    b.SubdomainURL,
		SubdirectoryURL: b.SubdirectoryURL,
		Description:     b.Description,
		Phone:           b.Phone,
		Email:           b.Email,
		Address:         b.Address,
		BusinessHours:   hours,
		Status:          b.Status,
		ViewCount:       b.ViewCount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBusinesses(in []model.Business) []businessResponse {
	out := make([]businessResponse, 0, len(in))
	for _, b := range in {
		out = append(out, toBusiness(b))
	}
	return out
}

type availabilityResponse struct {
	Available   bool     `json:"available"`
	Slug        string   `json:"slug"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (h *Handler) CheckSubdomain(w http.ResponseWriter, r *http.Request) {
	res, err := h.businesses.CheckSlug(r.Context(), r.URL.Query().Get("slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{
		Available:   res.Available,
		Slug:        res.Slug,
		Suggestions: res.Suggestions,
	})
}

func (h *Handler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req businessRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.businesses.Create(r.Context(), a.UserID, business.CreateInput{
		Name:          req.BusinessName,
		PreferredSlug: req.Slug,
		Profile:       req.profile(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"business": toBusiness(b)})
}

func (h *Handler) MyBusinesses(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.businesses.ListMine(r.Context(), a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"businesses": toBusinesses(list)})
}

func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "businessId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.businesses.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"business": toBusiness(b)})
}

func (h *Handler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
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
	var req businessRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.businesses.Update(r.Context(), a, id, req.profile())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"business": toBusiness(b)})
}

func (h *Handler) ListBusinessesByStatus(w http.ResponseWriter, r *http.Request) {
	list, err := h.businesses.ListByStatus(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"businesses": toBusinesses(list)})
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) SetBusinessStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "businessId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.businesses.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"business": toBusiness(b)})
}

func (h *Handler) DeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "businessId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.businesses.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
