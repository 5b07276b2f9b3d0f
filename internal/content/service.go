// Package content provides the dashboard content resources: posts edited by
// content editors and the usage report consumed by the reports widget.
// Capability gating happens at the routing layer; the service assumes its
// caller was already authorized.
package content

import (
	"context"
	"fmt"

	"github.com/castellan-io/castellan/internal/domain"
)

// Service implements content business logic.
type Service struct {
	repo Repository
}

// NewService creates a new content service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePostInput holds data for creating a post.
type CreatePostInput struct {
	Title    string
	Body     string
	Status   domain.PostStatus
	AuthorID string
}

// CreatePost creates a post. An omitted status defaults to draft.
func (s *Service) CreatePost(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	status := input.Status
	if status == "" {
		status = domain.PostStatusDraft
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	post := &domain.Post{
		Title:    input.Title,
		Body:     input.Body,
		Status:   status,
		AuthorID: input.AuthorID,
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// GetPost returns a post by ID.
func (s *Service) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.repo.GetPostByID(ctx, id)
}

// ListPosts lists posts matching the filter, newest first.
func (s *Service) ListPosts(ctx context.Context, filter PostFilter) ([]domain.Post, error) {
	posts, err := s.repo.ListPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// UpdatePostInput holds optional field updates; nil fields are left as-is.
type UpdatePostInput struct {
	Title  *string
	Body   *string
	Status *domain.PostStatus
}

// UpdatePost applies a partial update to a post.
func (s *Service) UpdatePost(ctx context.Context, id string, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Body != nil {
		post.Body = *input.Body
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		post.Status = *input.Status
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	return s.repo.DeletePost(ctx, id)
}

// UsageReport aggregates counts for the reports dashboard widget.
type UsageReport struct {
	UsersByRole   map[domain.Role]int       `json:"users_by_role"`
	PostsByStatus map[domain.PostStatus]int `json:"posts_by_status"`
	TotalUsers    int                       `json:"total_users"`
	TotalPosts    int                       `json:"total_posts"`
}

// UsageReport builds the aggregated usage report.
func (s *Service) UsageReport(ctx context.Context) (*UsageReport, error) {
	usersByRole, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	postsByStatus, err := s.repo.CountPostsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}

	report := &UsageReport{
		UsersByRole:   usersByRole,
		PostsByStatus: postsByStatus,
	}
	for _, n := range usersByRole {
		report.TotalUsers += n
	}
	for _, n := range postsByStatus {
		report.TotalPosts += n
	}
	return report, nil
}
