package content

import (
	"context"
	"testing"

	"github.com/castellan-io/castellan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	posts       map[string]*domain.Post
	nextID      int
	usersByRole map[domain.Role]int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		posts: make(map[string]*domain.Post),
	}
}

func (m *mockRepository) CreatePost(_ context.Context, post *domain.Post) error {
	m.nextID++
	post.ID = "post-" + string(rune('0'+m.nextID))
	m.posts[post.ID] = post
	return nil
}

func (m *mockRepository) GetPostByID(_ context.Context, id string) (*domain.Post, error) {
	if p, ok := m.posts[id]; ok {
		return p, nil
	}
	return nil, ErrPostNotFound
}

func (m *mockRepository) ListPosts(_ context.Context, filter PostFilter) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range m.posts {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepository) UpdatePost(_ context.Context, post *domain.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return ErrPostNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *mockRepository) DeletePost(_ context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *mockRepository) CountUsersByRole(_ context.Context) (map[domain.Role]int, error) {
	return m.usersByRole, nil
}

func (m *mockRepository) CountPostsByStatus(_ context.Context) (map[domain.PostStatus]int, error) {
	counts := make(map[domain.PostStatus]int)
	for _, p := range m.posts {
		counts[p.Status]++
	}
	return counts, nil
}

func TestCreatePost_DefaultsToDraft(t *testing.T) {
	service := NewService(newMockRepository())

	post, err := service.CreatePost(context.Background(), CreatePostInput{
		Title:    "Hello",
		Body:     "World",
		AuthorID: "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusDraft, post.Status)
	assert.NotEmpty(t, post.ID)
}

func TestCreatePost_InvalidStatusRejected(t *testing.T) {
	service := NewService(newMockRepository())

	post, err := service.CreatePost(context.Background(), CreatePostInput{
		Title:  "Hello",
		Status: domain.PostStatus("archived"),
	})

	assert.Nil(t, post)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdatePost_PartialUpdate(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	created, err := service.CreatePost(context.Background(), CreatePostInput{
		Title:    "Original",
		Body:     "Body",
		AuthorID: "u1",
	})
	require.NoError(t, err)

	published := domain.PostStatusPublished
	updated, err := service.UpdatePost(context.Background(), created.ID, UpdatePostInput{Status: &published})

	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, domain.PostStatusPublished, updated.Status)
}

func TestUpdatePost_NotFound(t *testing.T) {
	service := NewService(newMockRepository())

	status := domain.PostStatusPublished
	post, err := service.UpdatePost(context.Background(), "missing", UpdatePostInput{Status: &status})

	assert.Nil(t, post)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdatePost_InvalidStatusRejected(t *testing.T) {
	service := NewService(newMockRepository())

	created, err := service.CreatePost(context.Background(), CreatePostInput{Title: "T"})
	require.NoError(t, err)

	bad := domain.PostStatus("archived")
	post, err := service.UpdatePost(context.Background(), created.ID, UpdatePostInput{Status: &bad})

	assert.Nil(t, post)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListPosts_FiltersByStatus(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.CreatePost(context.Background(), CreatePostInput{Title: "Draft"})
	require.NoError(t, err)
	_, err = service.CreatePost(context.Background(), CreatePostInput{
		Title:  "Published",
		Status: domain.PostStatusPublished,
	})
	require.NoError(t, err)

	published := domain.PostStatusPublished
	posts, err := service.ListPosts(context.Background(), PostFilter{Status: &published})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Published", posts[0].Title)
}

func TestUsageReport_SumsTotals(t *testing.T) {
	repo := newMockRepository()
	repo.usersByRole = map[domain.Role]int{
		domain.RoleAdmin:  1,
		domain.RoleViewer: 3,
	}
	service := NewService(repo)

	_, err := service.CreatePost(context.Background(), CreatePostInput{Title: "A"})
	require.NoError(t, err)
	_, err = service.CreatePost(context.Background(), CreatePostInput{
		Title:  "B",
		Status: domain.PostStatusPublished,
	})
	require.NoError(t, err)

	report, err := service.UsageReport(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalUsers)
	assert.Equal(t, 2, report.TotalPosts)
	assert.Equal(t, 1, report.PostsByStatus[domain.PostStatusDraft])
	assert.Equal(t, 1, report.PostsByStatus[domain.PostStatusPublished])
	assert.Equal(t, 3, report.UsersByRole[domain.RoleViewer])
}
