// Package postgres provides the PostgreSQL implementation of the content
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/castellan-io/castellan/internal/content"
	"github.com/castellan-io/castellan/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the content.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePost inserts a new post.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (title, body, status, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		post.Title,
		post.Body,
		post.Status,
		post.AuthorID,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID.
func (r *Repository) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `
		SELECT id, title, body, status, coalesce(author_id::text, ''), created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	var post domain.Post
	err := r.db.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&post.Status,
		&post.AuthorID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return &post, nil
}

// ListPosts retrieves posts matching the filter, newest first.
func (r *Repository) ListPosts(ctx context.Context, filter content.PostFilter) ([]domain.Post, error) {
	// author_id is null after its user is deleted; posts survive their author.
	query := `
		SELECT id, title, body, status, coalesce(author_id::text, ''), created_at, updated_at
		FROM posts
	`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Body,
			&post.Status,
			&post.AuthorID,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// UpdatePost persists field updates to a post.
func (r *Repository) UpdatePost(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET title = $2, body = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		post.ID,
		post.Title,
		post.Body,
		post.Status,
	).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.ErrPostNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// DeletePost removes a post.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrPostNotFound
	}
	return nil
}

// CountUsersByRole aggregates user counts per role.
func (r *Repository) CountUsersByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := r.db.Query(ctx, `SELECT role, count(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Role]int)
	for rows.Next() {
		var role domain.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		counts[role] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role counts: %w", err)
	}
	return counts, nil
}

// CountPostsByStatus aggregates post counts per status.
func (r *Repository) CountPostsByStatus(ctx context.Context) (map[domain.PostStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM posts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PostStatus]int)
	for rows.Next() {
		var status domain.PostStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}
