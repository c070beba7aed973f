package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"recipebox/app/config"
	"recipebox/app/metrics"
	"recipebox/app/repositories"
	"recipebox/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postJSON struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type apiResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// setupTestRouter wires the full stack on an in-memory Badger store.
func setupTestRouter(t *testing.T) (*mux.Router, *repositories.Store, *metrics.Metrics) {
	t.Helper()

	db, err := repositories.OpenBadger(config.Badger{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &repositories.Store{
		Driver: config.DriverBadger,
		Posts:  repositories.NewBadgerPostRepository(db),
	}
	m := metrics.New()
	router := SetupRoutes(Dependencies{
		PostService:  services.NewPostService(store.Posts, nil),
		Metrics:      m,
		MaxBodyBytes: 1 << 20,
	})
	return router, store, m
}

func serve(router http.Handler, method, path, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func listPosts(t *testing.T, router http.Handler) []postJSON {
	t.Helper()
	w := serve(router, "GET", "/api/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	var posts []postJSON
	require.NoError(t, json.Unmarshal(res.Data, &posts))
	return posts
}

func TestAPIRoutes(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	t.Run("GET /api/posts on empty store", func(t *testing.T) {
		w := serve(router, "GET", "/api/posts", "", "")

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
	})

	t.Run("POST /api/posts creates a post", func(t *testing.T) {
		start := time.Now()
		w := serve(router, "POST", "/api/posts", `{"title":"Hello","content":"World","author":"Ann"}`, "application/json")

		require.Equal(t, http.StatusCreated, w.Code)
		var res apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "success", res.Status)

		var post postJSON
		require.NoError(t, json.Unmarshal(res.Data, &post))
		assert.NotEmpty(t, post.ID)
		assert.Equal(t, "Hello", post.Title)
		assert.False(t, post.CreatedAt.Before(start.Truncate(time.Microsecond)))

		posts := listPosts(t, router)
		require.Len(t, posts, 1)
		assert.Equal(t, post.ID, posts[0].ID)
		assert.True(t, post.CreatedAt.Equal(posts[0].CreatedAt))
	})

	t.Run("POST /api/posts with empty title stores nothing", func(t *testing.T) {
		before := len(listPosts(t, router))
		w := serve(router, "POST", "/api/posts", `{"title":"","content":"x","author":"y"}`, "application/json")

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"status":"error","message":"Missing required fields."}`, w.Body.String())
		assert.Len(t, listPosts(t, router), before)
	})

	t.Run("PUT /api/posts is not allowed", func(t *testing.T) {
		w := serve(router, "PUT", "/api/posts", `{}`, "application/json")

		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
		allow := w.Header().Get("Allow")
		assert.Contains(t, allow, "GET")
		assert.Contains(t, allow, "POST")
		assert.Equal(t, "Method PUT is not allowed.", w.Body.String())
	})

	t.Run("every response has a request ID", func(t *testing.T) {
		w := serve(router, "GET", "/api/posts", "", "")
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestConcurrentCreates(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	const n = 25
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"title":"t%d","content":"c","author":"a"}`, i)
			w := serve(router, "POST", "/api/posts", body, "application/json")
			if w.Code != http.StatusCreated {
				t.Errorf("create %d: status %d", i, w.Code)
				return
			}
			var res struct {
				Data postJSON `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			ids <- res.Data.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Len(t, listPosts(t, router), n)
}

func TestWebRoutes(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	t.Run("GET / redirects to the blog", func(t *testing.T) {
		w := serve(router, "GET", "/", "", "")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/blog", w.Header().Get("Location"))
	})

	t.Run("GET /blog shows an empty feed", func(t *testing.T) {
		w := serve(router, "GET", "/blog", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No blog posts yet.")
	})

	t.Run("POST /blog creates a post and shows it", func(t *testing.T) {
		form := url.Values{"title": {"Sourdough notes"}, "content": {"Feed the *starter*"}, "author": {"Ann"}}
		w := serve(router, "POST", "/blog", form.Encode(), "application/x-www-form-urlencoded")

		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/blog", w.Header().Get("Location"))

		w = serve(router, "GET", "/blog", "", "")
		assert.Contains(t, w.Body.String(), "Sourdough notes")
		assert.Contains(t, w.Body.String(), "<em>starter</em>")

		posts := listPosts(t, router)
		require.Len(t, posts, 1)
		assert.Equal(t, "Feed the *starter*", posts[0].Content)
	})

	t.Run("blog pages are not JSON", func(t *testing.T) {
		w := serve(router, "GET", "/blog", "", "")
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	})
}

func TestMetricsRoute(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	serve(router, "GET", "/api/posts", "", "")
	w := serve(router, "GET", "/metrics", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `recipebox_http_requests_total{code="200",method="GET",route="/api/posts"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := serve(router, "GET", "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
