package blog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Handler exposes the blog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     func(http.Handler) http.Handler
	validator *validator.Validate
}

// NewHandler builds Handler instance. guard must reject anonymous requests and
// attach the verified identity to the request context.
func NewHandler(logger *slog.Logger, service *Service, guard func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers blog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listAll)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.guard)
		r.Get("/my-blogs", h.listMine)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type createPostRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type updatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context(), All())
	if err != nil {
		h.fail(w, "list posts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	posts, err := h.service.List(r.Context(), ByAuthorEmail(identity.Email))
	if err != nil {
		h.fail(w, "list own posts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validationf("title and content are required"))
		return
	}
	post, err := h.service.Create(r.Context(), shared.IdentityFromContext(r.Context()), CreateInput{Title: req.Title, Content: req.Content})
	if err != nil {
		h.fail(w, "create post", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	post, err := h.service.Update(r.Context(), shared.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), UpdateInput{Title: req.Title, Content: req.Content})
	if err != nil {
		h.fail(w, "update post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), shared.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete post", err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Blog deleted successfully"})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
