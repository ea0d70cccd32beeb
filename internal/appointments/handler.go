package appointments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
)

// Handler wires the appointment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the patient-facing appointment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/create", h.create)
	r.Get("/list", h.listOwn)
	r.Get("/get/{id}", h.getOwn)
	r.Put("/update/{id}", h.updateOwn)
	r.Put("/cancel/{id}", h.cancel)
	r.Delete("/delete/{id}", h.deleteOwn)
}

// MountAdminRoutes registers the admin triage routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/appointments", h.listAll)
	r.Get("/appointments/{id}", h.view)
	r.Put("/appointments/{id}/confirm", h.confirm)
	r.Put("/appointments/{id}/reject", h.reject)
	r.Delete("/appointments/{id}", h.adminDelete)
}

// MountDoctorRoutes registers the doctor calendar routes.
func (h *Handler) MountDoctorRoutes(r chi.Router) {
	r.Get("/calendar", h.calendar)
	r.Get("/appointments/{id}", h.view)
}

type appointmentView struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	DoctorID        *int64    `json:"doctor_id,omitempty"`
	Date            time.Time `json:"appointment_date"`
	Reason          string    `json:"reason"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func toView(a *Appointment) appointmentView {
	return appointmentView{
		ID:              a.ID,
		UserID:          a.UserID,
		DoctorID:        a.DoctorID,
		Date:            a.Date,
		Reason:          a.Reason,
		RejectionReason: a.RejectionReason,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
	}
}

func toViews(list []Appointment) []appointmentView {
	views := make([]appointmentView, 0, len(list))
	for i := range list {
		views = append(views, toView(&list[i]))
	}
	return views
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

type createRequest struct {
	Date   time.Time `json:"appointment_date" validate:"required"`
	Reason string    `json:"reason" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "appointment_date and reason are required")
		return
	}

	appt, err := h.service.Create(r.Context(), principal, req.Date, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(appt))
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	list, err := h.service.ListOwn(r.Context(), principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toViews(list))
}

func (h *Handler) getOwn(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	appt, err := h.service.GetOwn(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(appt))
}

type updateRequest struct {
	Date   *time.Time `json:"appointment_date"`
	Reason *string    `json:"reason"`
}

func (h *Handler) updateOwn(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	appt, err := h.service.UpdateOwn(r.Context(), principal, id, Update{Date: req.Date, Reason: req.Reason})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(appt))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	if err := h.service.Cancel(r.Context(), principal, id); err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

func (h *Handler) deleteOwn(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	if err := h.service.DeleteOwn(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted"})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	list, err := h.service.ListAll(r.Context(), principal)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toViews(list))
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	appt, err := h.service.View(r.Context(), principal, id)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(appt))
}

type confirmRequest struct {
	DoctorID int64 `json:"doctor_id" validate:"required"`
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	var req confirmRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "doctor_id is required")
		return
	}

	appt, err := h.service.Confirm(r.Context(), principal, id, req.DoctorID)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(appt))
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "reason is required")
		return
	}

	appt, err := h.service.Reject(r.Context(), principal, id, req.Reason)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(appt))
}

func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid appointment id")
		return
	}
	if err := h.service.AdminDelete(r.Context(), principal, id); err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted"})
}

func (h *Handler) calendar(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	from, ok := parseRangeBound(r.URL.Query().Get("from"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be an RFC 3339 timestamp")
		return
	}
	to, ok := parseRangeBound(r.URL.Query().Get("to"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be an RFC 3339 timestamp")
		return
	}

	list, err := h.service.Calendar(r.Context(), principal, from, to)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toViews(list))
}

func parseRangeBound(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
