package community

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

// Handler wires the community board endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the community routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/comments", h.list)
	r.Post("/comments", h.createComment)
	r.Delete("/comments/{id}", h.deleteComment)
	r.Post("/comments/{id}/like", h.toggleLike)
	r.Post("/comments/{id}/replies", h.createReply)
	r.Delete("/replies/{id}", h.deleteReply)
}

type authorView struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type replyView struct {
	ID        int64      `json:"id"`
	CommentID int64      `json:"comment_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Author    authorView `json:"author"`
}

type commentView struct {
	ID        int64       `json:"id"`
	Content   string      `json:"content"`
	Likes     int         `json:"likes"`
	IsLiked   bool        `json:"is_liked"`
	CreatedAt time.Time   `json:"created_at"`
	Author    authorView  `json:"author"`
	Replies   []replyView `json:"replies"`
}

func toAuthorView(a AuthorSummary) authorView {
	return authorView{
		ID:             a.ID,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		Role:           a.Role,
		ProfilePicture: a.ProfilePicture,
	}
}

func toCommentView(t *CommentThread) commentView {
	replies := make([]replyView, 0, len(t.Replies))
	for _, r := range t.Replies {
		replies = append(replies, replyView{
			ID:        r.ID,
			CommentID: r.CommentID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			Author:    toAuthorView(r.Author),
		})
	}
	return commentView{
		ID:        t.ID,
		Content:   t.Content,
		Likes:     t.Likes,
		IsLiked:   t.IsLiked,
		CreatedAt: t.CreatedAt,
		Author:    toAuthorView(t.Author),
		Replies:   replies,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	threads, err := h.service.List(r.Context(), principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]commentView, 0, len(threads))
	for i := range threads {
		views = append(views, toCommentView(&threads[i]))
	}
	httpx.JSON(w, http.StatusOK, views)
}

type contentRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var req contentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "content is required")
		return
	}

	comment, err := h.service.CreateComment(r.Context(), principal, req.Content)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":         comment.ID,
		"content":    comment.Content,
		"likes":      comment.Likes,
		"created_at": comment.CreatedAt,
	})
}

type moderationRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid comment id")
		return
	}

	// The body is optional; only moderators send a reason.
	var req moderationRequest
	_ = httpx.DecodeJSON(r, &req)

	if err := h.service.DeleteComment(r.Context(), principal, id, req.Reason); err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Comment deleted"})
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid comment id")
		return
	}

	liked, likes, err := h.service.ToggleLike(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": likes})
}

func (h *Handler) createReply(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid comment id")
		return
	}
	var req contentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "content is required")
		return
	}

	reply, err := h.service.CreateReply(r.Context(), principal, id, req.Content)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":         reply.ID,
		"comment_id": reply.CommentID,
		"content":    reply.Content,
		"created_at": reply.CreatedAt,
	})
}

func (h *Handler) deleteReply(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid reply id")
		return
	}
	if err := h.service.DeleteReply(r.Context(), principal, id); err != nil {
		auth.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Reply deleted"})
}
