package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("token", Options{BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func TestGetAuthenticatedUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id": 42, "login": "octocat", "email": "octo@example.com"}`)
	})
	client := newTestClient(t, mux)

	user, err := client.GetAuthenticatedUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "42", user.GithubId)
	assert.Equal(t, "octocat", user.Username)
	assert.Equal(t, "octo@example.com", user.Email)
}

func TestGetRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 7, "name": "api", "full_name": "acme/api", "private": true, "stargazers_count": 3, "forks_count": 1}`)
	})
	client := newTestClient(t, mux)

	t.Run("should map the repository", func(t *testing.T) {
		repo, err := client.GetRepository(context.Background(), "acme", "api")

		require.NoError(t, err)
		assert.Equal(t, int64(7), repo.GithubId)
		assert.Equal(t, "acme/api", repo.FullName)
		assert.True(t, repo.Private)
		assert.Equal(t, 3, repo.Stars)
	})

	t.Run("should translate 404", func(t *testing.T) {
		_, err := client.GetRepository(context.Background(), "acme", "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListCommits(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/commits", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"sha": "c3", "commit": {"message": "third", "author": {"name": "Carol", "date": "2026-01-03T00:00:00Z"}}}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/api/commits?page=2>; rel="next"`, server.URL))
		fmt.Fprint(w, `[
			{"sha": "c1", "author": {"login": "alice"}, "commit": {"message": "first", "author": {"name": "Alice", "date": "2026-01-01T00:00:00Z"}}},
			{"sha": "c2", "author": {"login": "bob"}, "commit": {"message": "second", "author": {"name": "Bob", "date": "2026-01-02T00:00:00Z"}}}
		]`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient("", Options{BaseURL: server.URL})
	require.NoError(t, err)

	commits, err := client.ListCommits(context.Background(), "acme", "api", time.Time{})

	require.NoError(t, err)
	require.Len(t, commits, 3)
	assert.Equal(t, "alice", commits[0].Author)
	assert.Equal(t, "Carol", commits[2].Author)
	assert.Equal(t, 2026, commits[2].CreatedAt.Year())
}
