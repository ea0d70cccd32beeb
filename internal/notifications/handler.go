package notifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
)

// Handler wires notification endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Put("/{id}/read", h.markRead)
	r.Delete("/clear-all", h.clearAll)
}

type notificationView struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	ActorID   *int64         `json:"actor_id,omitempty"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Link      string         `json:"link,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt string         `json:"created_at"`
}

func toView(n *Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		UserID:    n.UserID,
		ActorID:   n.ActorID,
		Type:      n.Type,
		Message:   n.Message,
		Link:      n.Link,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type createRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "message is required")
		return
	}

	created, err := h.service.Create(r.Context(), principal.ID, req.Message)
	if err != nil {
		h.logger.Error("create notification", slog.Any("error", err))
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	list, err := h.service.ListForUser(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		auth.RespondError(w, err)
		return
	}
	views := make([]notificationView, 0, len(list))
	for i := range list {
		views = append(views, toView(&list[i]))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid notification id")
		return
	}

	updated, err := h.service.MarkRead(r.Context(), id, principal.ID)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(updated))
}

func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	if err := h.service.ClearAll(r.Context(), principal.ID); err != nil {
		h.logger.Error("clear notifications", slog.Any("error", err))
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "All notifications cleared successfully"})
}
