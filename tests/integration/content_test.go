//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/castellan-io/castellan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosts_EditorCreatesDraftByDefault(t *testing.T) {
	client := newTestClient(t)
	client.LoginAsEditor(t)

	resp, err := client.POST("/api/v1/posts", map[string]string{
		"title": "Draft by default",
		"body":  "body",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result postEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "draft", result.Data.Status)
	assert.NotEmpty(t, result.Data.AuthorID)

	del, err := client.DELETE("/api/v1/posts/" + result.Data.ID)
	require.NoError(t, err)
	_ = del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
}

func TestPosts_ViewerCanReadButNotWrite(t *testing.T) {
	editor := newTestClient(t)
	editor.LoginAsEditor(t)
	postID := createTestPost(t, editor, "Readable post")

	viewer := newTestClient(t)
	viewer.LoginAsViewer(t)

	read, err := viewer.GET("/api/v1/posts/" + postID)
	require.NoError(t, err)
	_ = read.Body.Close()
	assert.Equal(t, http.StatusOK, read.StatusCode)

	denied := newTestClientWithoutValidation()
	denied.AccessToken = viewer.AccessToken
	write, err := denied.POST("/api/v1/posts", map[string]string{"title": "Nope"})
	require.NoError(t, err)
	defer func() { _ = write.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, write.StatusCode)
}

func TestPosts_EditorCannotRead(t *testing.T) {
	// The capability table is deliberately non-hierarchical: editors hold
	// edit_content but not view_content.
	editor := newTestClientWithoutValidation()
	editor.LoginAsEditor(t)

	resp, err := editor.GET("/api/v1/posts")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPosts_UpdateAndPublish(t *testing.T) {
	client := newTestClient(t)
	client.LoginAsEditor(t)
	postID := createTestPost(t, client, "To be published")

	resp, err := client.PUT("/api/v1/posts/"+postID, map[string]string{
		"status": "published",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result postEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "published", result.Data.Status)
	assert.Equal(t, "To be published", result.Data.Title)
}

func TestPosts_InvalidStatusRejected(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.LoginAsEditor(t)

	resp, err := client.POST("/api/v1/posts", map[string]string{
		"title":  "Bad status",
		"status": "archived",
	})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPosts_UnknownIDReturns404(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.LoginAsViewer(t)

	resp, err := client.GET("/api/v1/posts/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPosts_AnonymousGets401(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.GET("/api/v1/posts")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReports_AdminOnlyCapability(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	resp, err := admin.GET("/api/v1/reports/usage")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			UsersByRole map[string]int `json:"users_by_role"`
			TotalUsers  int            `json:"total_users"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.GreaterOrEqual(t, result.Data.TotalUsers, len(seedAccounts))
	assert.GreaterOrEqual(t, result.Data.UsersByRole["admin"], 1)

	for _, login := range []func(*testutil.Client, *testing.T){
		func(c *testutil.Client, t *testing.T) { c.LoginAsEditor(t) },
		func(c *testutil.Client, t *testing.T) { c.LoginAsViewer(t) },
		func(c *testutil.Client, t *testing.T) { c.LoginAsModerator(t) },
	} {
		denied := newTestClientWithoutValidation()
		login(denied, t)
		resp, err := denied.GET("/api/v1/reports/usage")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestPosts_FilterByStatus(t *testing.T) {
	editor := newTestClient(t)
	editor.LoginAsEditor(t)
	postID := createTestPost(t, editor, "Filtered")

	publish, err := editor.PUT("/api/v1/posts/"+postID, map[string]string{"status": "published"})
	require.NoError(t, err)
	_ = publish.Body.Close()
	require.Equal(t, http.StatusOK, publish.StatusCode)

	viewer := newTestClient(t)
	viewer.LoginAsViewer(t)
	resp, err := viewer.GET("/api/v1/posts?status=published")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	found := false
	for _, p := range result.Data {
		assert.Equal(t, "published", p.Status)
		if p.ID == postID {
			found = true
		}
	}
	assert.True(t, found, "published post should be listed")
}
