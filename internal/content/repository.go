package content

import (
	"context"

	"github.com/castellan-io/castellan/internal/domain"
)

// Repository defines the interface for content data operations.
type Repository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	UpdatePost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, id string) error

	// UsageCounts feeds the reports widget.
	CountUsersByRole(ctx context.Context) (map[domain.Role]int, error)
	CountPostsByStatus(ctx context.Context) (map[domain.PostStatus]int, error)
}

// PostFilter represents filter criteria for listing posts.
type PostFilter struct {
	Status   *domain.PostStatus
	AuthorID *string
}
