package domain

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// IsValid reports whether the status is a known post status.
func (s PostStatus) IsValid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a dashboard content item managed through the content module.
type Post struct {
	ID        string
	Title     string
	Body      string
	Status    PostStatus
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
