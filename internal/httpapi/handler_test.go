package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moustapha2526/TinyIsnta/internal/feed"
	"github.com/Moustapha2526/TinyIsnta/internal/httpapi"
	"github.com/Moustapha2526/TinyIsnta/internal/seed"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
	"github.com/Moustapha2526/TinyIsnta/store"
)

func newTestRouter(t *testing.T, seedToken string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	graph := social.NewGraph(mem)
	posts := social.NewPosts(mem)
	feedSvc := feed.NewService(graph, posts)
	seeder := seed.NewPipeline(mem, graph, posts, zerolog.Nop())

	router := gin.New()
	httpapi.NewHandler(graph, posts, feedSvc, seeder, seedToken).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTimelineEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	// Missing user parameter.
	w := doJSON(t, router, http.MethodGet, "/api/timeline", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown user is 404, distinct from an empty timeline.
	w = doJSON(t, router, http.MethodGet, "/api/timeline?user=ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Existing user with no posts gets an empty 200.
	w = doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/timeline?user=alice", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User  string `json:"user"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.User)
	assert.Equal(t, 0, resp.Count)
}

func TestPostFollowTimelineFlow(t *testing.T) {
	router := newTestRouter(t, "")

	for _, name := range []string{"alice", "bob"} {
		w := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": name}, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/api/posts", gin.H{"author": "bob", "content": "hello"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Posting as an unknown author is rejected.
	w = doJSON(t, router, http.MethodPost, "/api/posts", gin.H{"author": "ghost", "content": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/follow", gin.H{"user": "alice", "to_follow": "bob"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/timeline?user=alice", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
		Items []struct {
			Author  string `json:"author"`
			Content string `json:"content"`
			Created string `json:"created"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "bob", resp.Items[0].Author)
	assert.Equal(t, "hello", resp.Items[0].Content)
	assert.NotEmpty(t, resp.Items[0].Created)
}

func TestSeedEndpointTokenGuard(t *testing.T) {
	router := newTestRouter(t, "sekrit")
	body := gin.H{"users": 2, "posts_per_user": 1, "followees_per_user": 1, "seed": 7}

	w := doJSON(t, router, http.MethodPost, "/admin/seed", body, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/seed", body, map[string]string{"X-Seed-Token": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/seed", body, map[string]string{"X-Seed-Token": "sekrit"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Result struct {
			UsersTotal   int `json:"users_total"`
			UsersCreated int `json:"users_created"`
			PostsCreated int `json:"posts_created"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Result.UsersTotal)
	assert.Equal(t, 2, resp.Result.UsersCreated)
	assert.Equal(t, 2, resp.Result.PostsCreated)
}

func TestSeedEndpointInvalidParams(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/admin/seed", gin.H{"users": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearEndpoint(t *testing.T) {
	router := newTestRouter(t, "sekrit")

	seedBody := gin.H{"users": 3, "posts_per_user": 2, "followees_per_user": 0, "seed": 1}
	w := doJSON(t, router, http.MethodPost, "/admin/seed?token=sekrit", seedBody, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/clear", nil, map[string]string{"X-Seed-Token": "sekrit"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UsersDeleted int `json:"users_deleted"`
		PostsDeleted int `json:"posts_deleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.UsersDeleted)
	assert.Equal(t, 6, resp.PostsDeleted)
}
