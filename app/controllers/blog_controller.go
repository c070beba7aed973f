package controllers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"recipebox/app/markdown"
	"recipebox/app/models"
	"recipebox/app/services"
	"recipebox/app/views"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

const messageLoadFailed = "Failed to load blog posts"

// BlogController renders the blog page: a post form and the feed.
type BlogController struct {
	postService *services.PostService
	templates   map[string]*template.Template
	minifier    *minify.M
}

// NewBlogController creates a BlogController with the embedded templates.
func NewBlogController(postService *services.PostService) *BlogController {
	return &BlogController{
		postService: postService,
		templates:   loadTemplates(),
		minifier:    newMinifier(),
	}
}

// loadTemplates loads and parses all templates
func loadTemplates() map[string]*template.Template {
	funcs := template.FuncMap{
		"markdown": markdown.Render,
		"timefmt": func(t time.Time) string {
			return t.UTC().Format("Jan 2, 2006 15:04 MST")
		},
	}

	templates := make(map[string]*template.Template)
	templates["index"] = template.Must(template.New("index").Funcs(funcs).ParseFS(
		views.Files,
		"layout.html",
		"blog/index.html",
	))
	return templates
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

type postForm struct {
	Title   string
	Content string
	Author  string
}

type blogPage struct {
	PageTitle string
	Posts     []*models.Post
	Form      postForm
	Preview   template.HTML
	Error     string
	LoadError string
}

// Index shows the form and the feed.
func (bc *BlogController) Index(w http.ResponseWriter, r *http.Request) {
	bc.render(w, r, http.StatusOK, bc.newPage(r, postForm{}))
}

// Create handles the form: a preview re-renders with the markdown rendered,
// otherwise the post is stored and the browser is sent back to the feed.
// Failures keep what the user typed.
func (bc *BlogController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := bc.newPage(r, postForm{})
		page.Error = messageMissingFields
		bc.render(w, r, http.StatusBadRequest, page)
		return
	}

	form := postForm{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Author:  r.PostFormValue("author"),
	}

	if r.PostFormValue("action") == "preview" {
		page := bc.newPage(r, form)
		page.Preview = markdown.Render(form.Content)
		bc.render(w, r, http.StatusOK, page)
		return
	}

	_, err := bc.postService.CreatePost(r.Context(), form.Title, form.Content, form.Author)
	if err == nil {
		http.Redirect(w, r, "/blog", http.StatusSeeOther)
		return
	}

	page := bc.newPage(r, form)
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		page.Error = messageMissingFields
		bc.render(w, r, http.StatusBadRequest, page)
		return
	}

	log.Ctx(r.Context()).Error().Err(err).Msg("create blog post from form")
	page.Error = messageCreateFailed
	bc.render(w, r, http.StatusInternalServerError, page)
}

func (bc *BlogController) newPage(r *http.Request, form postForm) *blogPage {
	page := &blogPage{PageTitle: "Blog", Form: form}

	posts, err := bc.postService.ListPosts(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("list blog posts for page")
		page.LoadError = messageLoadFailed
		return page
	}
	page.Posts = posts
	return page
}

func (bc *BlogController) render(w http.ResponseWriter, r *http.Request, status int, page *blogPage) {
	var buf bytes.Buffer
	if err := bc.templates["index"].ExecuteTemplate(&buf, "layout", page); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("render blog page")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	out, err := bc.minifier.Bytes("text/html", buf.Bytes())
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("minify blog page")
		out = buf.Bytes()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(out)
}
