package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"recipebox/app/repositories/mock"
	"recipebox/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postJSON struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
}

type listResponse struct {
	Status  string     `json:"status"`
	Data    []postJSON `json:"data"`
	Message string     `json:"message"`
}

type createResponse struct {
	Status  string   `json:"status"`
	Data    postJSON `json:"data"`
	Message string   `json:"message"`
}

func setupTestPostController(t *testing.T) (*PostController, *mock.PostRepository) {
	postRepo := mock.NewPostRepository()
	postService := services.NewPostService(postRepo, nil)
	return NewPostController(postService, 1<<20), postRepo
}

func setupRouter(controller *PostController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/posts", controller.Index).Methods(http.MethodGet)
	router.HandleFunc("/api/posts", controller.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/posts", controller.MethodNotAllowed)
	return router
}

func doRequest(router http.Handler, method, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/posts", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostController(t *testing.T) {
	controller, postRepo := setupTestPostController(t)
	router := setupRouter(controller)

	t.Run("list empty store", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
	})

	t.Run("create post", func(t *testing.T) {
		start := time.Now().UTC().Truncate(time.Millisecond)
		w := doRequest(router, http.MethodPost, `{"title":"Hello","content":"World","author":"Ann"}`, "application/json")

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var res createResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "success", res.Status)
		assert.Equal(t, "Hello", res.Data.Title)
		assert.Equal(t, "World", res.Data.Content)
		assert.Equal(t, "Ann", res.Data.Author)
		assert.NotEmpty(t, res.Data.ID)

		createdAt, err := time.Parse(time.RFC3339Nano, res.Data.CreatedAt)
		require.NoError(t, err)
		assert.False(t, createdAt.Before(start))
	})

	t.Run("create post from form", func(t *testing.T) {
		form := url.Values{"title": {"Form"}, "content": {"Body"}, "author": {"Bo"}}
		w := doRequest(router, http.MethodPost, form.Encode(), "application/x-www-form-urlencoded")

		require.Equal(t, http.StatusCreated, w.Code)
		var res createResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "Form", res.Data.Title)
	})

	t.Run("list returns created posts newest first", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "", "")

		require.Equal(t, http.StatusOK, w.Code)
		var res listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "success", res.Status)
		require.Len(t, res.Data, 2)
		assert.Equal(t, "Form", res.Data[0].Title)
		assert.Equal(t, "Hello", res.Data[1].Title)
		assert.NotEqual(t, res.Data[0].ID, res.Data[1].ID)
	})

	t.Run("missing fields", func(t *testing.T) {
		bodies := map[string]string{
			"empty title":     `{"title":"","content":"x","author":"y"}`,
			"missing author":  `{"title":"t","content":"x"}`,
			"null content":    `{"title":"t","content":null,"author":"y"}`,
			"empty object":    `{}`,
			"empty body":      ``,
			"malformed json":  `{"title":`,
			"non-string type": `{"title":5,"content":"x","author":"y"}`,
		}

		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				before := postRepo.Count()
				w := doRequest(router, http.MethodPost, body, "application/json")

				require.Equal(t, http.StatusBadRequest, w.Code)
				assert.JSONEq(t, `{"status":"error","message":"Missing required fields."}`, w.Body.String())
				assert.Equal(t, before, postRepo.Count())
			})
		}
	})

	t.Run("rejected post is not listed", func(t *testing.T) {
		doRequest(router, http.MethodPost, `{"title":"","content":"x","author":"y"}`, "application/json")
		w := doRequest(router, http.MethodGet, "", "")

		var res listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Len(t, res.Data, 2)
	})

	t.Run("oversized body", func(t *testing.T) {
		small := NewPostController(services.NewPostService(postRepo, nil), 16)
		w := doRequest(setupRouter(small), http.MethodPost, `{"title":"Hello","content":"World","author":"Ann"}`, "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store unavailable on list", func(t *testing.T) {
		postRepo.Fail(errors.New("connection refused"))
		defer postRepo.Fail(nil)

		w := doRequest(router, http.MethodGet, "", "")
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"status":"error","message":"Blog post search could not be performed."}`, w.Body.String())
	})

	t.Run("store unavailable on create", func(t *testing.T) {
		postRepo.Fail(errors.New("connection refused"))
		defer postRepo.Fail(nil)

		w := doRequest(router, http.MethodPost, `{"title":"Hello","content":"World","author":"Ann"}`, "application/json")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"status":"error","message":"Blog post could not be created."}`, w.Body.String())
	})

	t.Run("unsupported methods", func(t *testing.T) {
		for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
			t.Run(method, func(t *testing.T) {
				w := doRequest(router, method, "", "")

				require.Equal(t, http.StatusMethodNotAllowed, w.Code)
				assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
				assert.Equal(t, "Method "+method+" is not allowed.", w.Body.String())
			})
		}
	})
}
