package app

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mediport/mediport/internal/accounts"
	"github.com/mediport/mediport/internal/appointments"
	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/community"
	"github.com/mediport/mediport/internal/documents"
	"github.com/mediport/mediport/internal/notifications"
	"github.com/mediport/mediport/internal/platform/storage"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	AuthMiddleware       *auth.Middleware
	AuthHandler          *auth.Handler
	AccountsHandler      *accounts.Handler
	AppointmentsHandler  *appointments.Handler
	CommunityHandler     *community.Handler
	NotificationsHandler *notifications.Handler
	DocumentsHandler     *documents.Handler
}

// NewRouter constructs the chi.Router with MediPort defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", func(r chi.Router) {
		params.AccountsHandler.MountPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequirePrincipal)
			params.AccountsHandler.MountRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequirePrincipal)

		r.Route("/profile", func(r chi.Router) {
			params.AccountsHandler.MountProfileRoutes(r)
			params.DocumentsHandler.MountProfileRoutes(r)
		})
		r.Route("/settings", params.AccountsHandler.MountSettingsRoutes)
		r.Route("/appointments", params.AppointmentsHandler.MountRoutes)
		r.Route("/community", params.CommunityHandler.MountRoutes)
		r.Route("/notifications", params.NotificationsHandler.MountRoutes)
		r.Route("/documents", params.DocumentsHandler.MountRoutes)

		r.Route("/admin", func(r chi.Router) {
			params.AccountsHandler.MountAdminRoutes(r)
			params.AppointmentsHandler.MountAdminRoutes(r)
		})
		r.Route("/doctor", func(r chi.Router) {
			params.AppointmentsHandler.MountDoctorRoutes(r)
			params.DocumentsHandler.MountDoctorRoutes(r)
		})
	})

	// Profile pictures are public assets; documents stay behind the guarded
	// download endpoint.
	picturesDir := filepath.Join(params.Config.UploadDir, storage.CategoryProfilePictures)
	pictureServer := http.StripPrefix("/static/"+storage.CategoryProfilePictures+"/",
		http.FileServer(http.Dir(picturesDir)))
	r.Handle("/static/"+storage.CategoryProfilePictures+"/*", staticCacheHandler(pictureServer))

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
