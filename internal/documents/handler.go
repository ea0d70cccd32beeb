package documents

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
)

// Handler wires the document endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountProfileRoutes registers the owner's document routes.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Post("/me/documents", h.uploadOwn)
	r.Get("/me/documents", h.listOwn)
}

// MountRoutes registers the shared download and delete routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{key}/download", h.download)
	r.Delete("/{key}", h.deleteOwn)
}

// MountDoctorRoutes registers the doctor-side patient file routes.
func (h *Handler) MountDoctorRoutes(r chi.Router) {
	r.Get("/patients/{id}/documents", h.listForPatient)
	r.Post("/patients/{id}/documents", h.uploadForPatient)
}

type documentView struct {
	StorageKey  string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toView(d *Document) documentView {
	return documentView{
		StorageKey:  d.StorageKey,
		Name:        d.Name,
		ContentType: d.ContentType,
		URL:         "/documents/" + d.StorageKey + "/download",
		CreatedAt:   d.CreatedAt,
	}
}

func toViews(list []Document) []documentView {
	views := make([]documentView, 0, len(list))
	for i := range list {
		views = append(views, toView(&list[i]))
	}
	return views
}

func (h *Handler) uploadOwn(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	h.upload(w, r, principal, principal.ID)
}

func (h *Handler) uploadForPatient(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	patientID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid patient id")
		return
	}
	h.upload(w, r, principal, patientID)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, principal *auth.Account, patientID int64) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxDocumentBytes+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file exceeds 10MB or is missing")
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(r.Context(), principal, patientID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(doc))
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

func (h *Handler) listForPatient(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	patientID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid patient id")
		return
	}
	list, err := h.service.ListForPatient(r.Context(), principal, patientID)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toViews(list))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	doc, f, err := h.service.Download(r.Context(), principal, chi.URLParam(r, "key"))
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("stream document", slog.String("document", doc.StorageKey), slog.Any("error", err))
	}
}

func (h *Handler) deleteOwn(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal, chi.URLParam(r, "key")); err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}
