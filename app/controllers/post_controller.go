package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"recipebox/app/models"
	"recipebox/app/services"

	"github.com/rs/zerolog/log"
)

const (
	messageListFailed    = "Blog post search could not be performed."
	messageMissingFields = "Missing required fields."
	messageCreateFailed  = "Blog post could not be created."
)

// AllowedPostMethods is advertised on 405 responses from /api/posts.
var AllowedPostMethods = []string{http.MethodGet, http.MethodPost}

// PostController serves the /api/posts resource.
type PostController struct {
	postService  *services.PostService
	maxBodyBytes int64
}

// NewPostController creates a PostController. Request bodies above
// maxBodyBytes are rejected as unreadable.
func NewPostController(postService *services.PostService, maxBodyBytes int64) *PostController {
	return &PostController{
		postService:  postService,
		maxBodyBytes: maxBodyBytes,
	}
}

// createPostRequest is the body of POST /api/posts.
type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Index lists every post.
//
// A store failure answers 404 rather than 500; clients of the original
// endpoint depend on that status.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("list blog posts")
		sendError(w, http.StatusNotFound, messageListFailed)
		return
	}

	sendSuccess(w, http.StatusOK, posts)
}

// Create stores one post from a JSON or form-encoded body.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	req, err := pc.decodeCreateRequest(w, r)
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("unreadable create post body")
		sendError(w, http.StatusBadRequest, messageMissingFields)
		return
	}

	post, err := pc.postService.CreatePost(r.Context(), req.Title, req.Content, req.Author)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			sendError(w, http.StatusBadRequest, messageMissingFields)
			return
		}

		log.Ctx(r.Context()).Error().Err(err).Msg("create blog post")
		sendError(w, http.StatusInternalServerError, messageCreateFailed)
		return
	}

	sendSuccess(w, http.StatusCreated, post)
}

// MethodNotAllowed answers every method the resource does not support.
func (pc *PostController) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", strings.Join(AllowedPostMethods, ", "))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	fmt.Fprintf(w, "Method %s is not allowed.", r.Method)
}

func (pc *PostController) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*createPostRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, pc.maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(pc.maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return &createPostRequest{
			Title:   r.PostFormValue("title"),
			Content: r.PostFormValue("content"),
			Author:  r.PostFormValue("author"),
		}, nil
	default:
		var req createPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return &req, nil
	}
}
