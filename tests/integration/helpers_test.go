//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/castellan-io/castellan/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Accounts created by seedUsers, one per role. The testutil client's
// LoginAs* helpers match these credentials.
var seedAccounts = []struct {
	name     string
	email    string
	password string
	role     string
}{
	{"Admin", "admin@example.com", "admin123", "admin"},
	{"Editor", "editor@example.com", "editor123", "editor"},
	{"Viewer", "viewer@example.com", "viewer123", "viewer"},
	{"Moderator", "moderator@example.com", "moderator123", "moderator"},
}

func seedUsers(ctx context.Context, db *pgxpool.Pool) error {
	for _, a := range seedAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.MinCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.email, err)
		}
		_, err = db.Exec(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, a.name, a.email, string(hash), a.role)
		if err != nil {
			return fmt.Errorf("insert %s: %w", a.email, err)
		}
	}
	return nil
}

// randomEmail returns a unique email so registration tests never collide.
func randomEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

// userEnvelope mirrors the {"data": ...} user response shape.
type userEnvelope struct {
	Data struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		Email        string   `json:"email"`
		Role         string   `json:"role"`
		Capabilities []string `json:"capabilities"`
	} `json:"data"`
}

// tokenEnvelope mirrors the login/refresh response shape.
type tokenEnvelope struct {
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID           string   `json:"id"`
			Email        string   `json:"email"`
			Role         string   `json:"role"`
			Capabilities []string `json:"capabilities"`
		} `json:"user"`
	} `json:"data"`
}

// postEnvelope mirrors the {"data": ...} post response shape.
type postEnvelope struct {
	Data struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Body     string `json:"body"`
		Status   string `json:"status"`
		AuthorID string `json:"author_id"`
	} `json:"data"`
}

// registerUser registers a fresh user and returns its ID and email.
func registerUser(t *testing.T, client *testutil.Client, role string) (id, email string) {
	t.Helper()

	email = randomEmail("user")
	payload := map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	}
	if role != "" {
		payload["role"] = role
	}

	resp, err := client.POST("/api/v1/auth/register", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result userEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data.ID, email
}

// createTestPost creates a post as the client's current identity and
// schedules its deletion.
func createTestPost(t *testing.T, client *testutil.Client, title string) string {
	t.Helper()

	resp, err := client.POST("/api/v1/posts", map[string]string{
		"title": title,
		"body":  "integration test content",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result postEnvelope
	testutil.DecodeJSON(t, resp, &result)

	id := result.Data.ID
	t.Cleanup(func() {
		resp, err := client.DELETE("/api/v1/posts/" + id)
		if err == nil {
			_ = resp.Body.Close()
		}
	})
	return id
}

// deleteUserRow removes a user directly, bypassing the API.
func deleteUserRow(t *testing.T, id string) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	require.NoError(t, err)
}
