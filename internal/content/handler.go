package content

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/castellan-io/castellan/internal/domain"
	"github.com/castellan-io/castellan/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the content module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new content handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterReadRoutes registers the read-only content routes.
// Callers gate these with the view_content capability.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
}

// RegisterWriteRoutes registers the content editing routes.
// Callers gate these with the edit_content capability.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/posts", h.CreatePost)
	r.Put("/posts/{id}", h.UpdatePost)
	r.Delete("/posts/{id}", h.DeletePost)
}

// RegisterReportRoutes registers the reports routes.
// Callers gate these with the view_reports capability.
func (h *Handler) RegisterReportRoutes(r chi.Router) {
	r.Get("/reports/usage", h.GetUsageReport)
}

var serviceErrorMappings = []httputil.ErrorMapping{
	{Error: ErrPostNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
}

// PostResponse is the serialized post shape.
type PostResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Status    domain.PostStatus `json:"status"`
	AuthorID  string            `json:"author_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func toPostResponse(post *domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Body:      post.Body,
		Status:    post.Status,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Title  string `json:"title" validate:"required,min=1,max=255"`
	Body   string `json:"body"`
	Status string `json:"status" validate:"omitempty,oneof=draft published"`
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	post, err := h.service.CreatePost(r.Context(), CreatePostInput{
		Title:    req.Title,
		Body:     req.Body,
		Status:   domain.PostStatus(req.Status),
		AuthorID: httputil.GetUserID(r.Context()),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, toPostResponse(post))
}

// GetPost handles GET /posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, toPostResponse(post))
}

// ListPosts handles GET /posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	var filter PostFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.PostStatus(raw)
		if !status.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("author_id"); raw != "" {
		filter.AuthorID = &raw
	}

	posts, err := h.service.ListPosts(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrorMappings)
		return
	}

	responses := make([]PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, toPostResponse(&posts[i]))
	}
	httputil.Success(w, http.StatusOK, responses)
}

// UpdatePostRequest represents the partial update request body.
type UpdatePostRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Body   *string `json:"body"`
	Status *string `json:"status" validate:"omitempty,oneof=draft published"`
}

// UpdatePost handles PUT /posts/{id}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	input := UpdatePostInput{
		Title: req.Title,
		Body:  req.Body,
	}
	if req.Status != nil {
		status := domain.PostStatus(*req.Status)
		input.Status = &status
	}

	post, err := h.service.UpdatePost(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, toPostResponse(post))
}

// DeletePost handles DELETE /posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUsageReport handles GET /reports/usage.
func (h *Handler) GetUsageReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.UsageReport(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, serviceErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, report)
}
