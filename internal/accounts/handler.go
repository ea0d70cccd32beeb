package accounts

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
	"github.com/mediport/mediport/internal/platform/storage"
)

const maxPictureBytes = 5 << 20

var pictureExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Handler wires account, profile and settings endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	store     *storage.DiskStore
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, store *storage.DiskStore) *Handler {
	return &Handler{logger: logger, service: service, store: store, validator: validator.New()}
}

// MountPublicRoutes registers the routes reachable without a token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/create", h.register)
}

// MountRoutes registers the authenticated user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/get/{id}", h.get)
	r.Get("/list", h.list)
}

// MountProfileRoutes registers profile endpoints.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/me", h.profile)
	r.Put("/me", h.updateProfile)
	r.Post("/me/picture", h.uploadPicture)
}

// MountSettingsRoutes registers settings endpoints.
func (h *Handler) MountSettingsRoutes(r chi.Router) {
	r.Put("/language", h.updateSettings)
}

// MountAdminRoutes registers the admin user-management endpoints.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/users", h.list)
	r.Delete("/users/{id}", h.ban)
	r.Put("/users/{id}/role", h.changeRole)
}

type accountView struct {
	ID             int64  `json:"id"`
	CIN            string `json:"cin"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Gender         string `json:"gender,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Language       string `json:"language"`
	Theme          string `json:"theme"`
}

func toView(a *Account) accountView {
	return accountView{
		ID:             a.ID,
		CIN:            a.CIN,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		Email:          a.Email,
		Gender:         a.Gender,
		Phone:          a.Phone,
		Role:           string(a.Role),
		ProfilePicture: a.ProfilePicture,
		Language:       a.Language,
		Theme:          a.Theme,
	}
}

type registerRequest struct {
	CIN       string `json:"cin" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Password  string `json:"password" validate:"required,min=8"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	account, err := h.service.Register(r.Context(), RegisterInput{
		CIN:       req.CIN,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Gender:    req.Gender,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(account))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, toView(principal))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(account))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	accounts, err := h.service.List(r.Context(), principal, skip, limit)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toView(&accounts[i]))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, toView(principal))
}

type profileUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var req profileUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), principal, ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		Phone:     req.Phone,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(updated))
}

func (h *Handler) uploadPicture(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureBytes+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file exceeds 5MB or is missing")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file must be an image")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !pictureExtensions[ext] {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "only JPG, PNG and GIF images are allowed")
		return
	}

	filename := strconv.FormatInt(principal.ID, 10) + "_" + uuid.NewString() + ext
	rel, err := h.store.Save(storage.CategoryProfilePictures, filename, file)
	if err != nil {
		h.logger.Error("save profile picture", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not save the file")
		return
	}

	path := "/static/" + rel
	if err := h.service.SetProfilePicture(r.Context(), principal, path); err != nil {
		// The database row is authoritative; drop the orphaned file.
		if removeErr := h.store.Remove(rel); removeErr != nil {
			h.logger.Warn("remove orphaned picture", slog.Any("error", removeErr))
		}
		httpx.RespondError(w, err)
		return
	}

	principal.ProfilePicture = path
	httpx.JSON(w, http.StatusOK, map[string]any{
		"profile_picture": path,
		"user":            toView(principal),
	})
}

type settingsRequest struct {
	Language string `json:"language" validate:"required"`
	Theme    string `json:"theme"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "language is required")
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), principal, Settings{Language: req.Language, Theme: req.Theme})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"language": settings.Language,
		"theme":    settings.Theme,
	})
}

func (h *Handler) ban(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	if err := h.service.Ban(r.Context(), principal, id); err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "User banned successfully"})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role is required")
		return
	}

	updated, err := h.service.ChangeRole(r.Context(), principal, id, req.Role)
	if err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(updated))
}
