package routes

import (
	"net/http"

	"recipebox/app/controllers"
	"recipebox/app/metrics"
	"recipebox/app/middleware"
	"recipebox/app/services"

	"github.com/gorilla/mux"
)

// Dependencies are what the router needs to build its controllers.
type Dependencies struct {
	PostService  *services.PostService
	Metrics      *metrics.Metrics
	MaxBodyBytes int64
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
		router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	postController := controllers.NewPostController(deps.PostService, deps.MaxBodyBytes)
	blogController := controllers.NewBlogController(deps.PostService)

	// Web routes
	router.Handle("/", http.RedirectHandler("/blog", http.StatusSeeOther)).Methods(http.MethodGet)
	router.HandleFunc("/blog", blogController.Index).Methods(http.MethodGet)
	router.HandleFunc("/blog", blogController.Create).Methods(http.MethodPost)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	// Posts API endpoints. The last route matches any method left over.
	api.HandleFunc("/posts", postController.Index).Methods(http.MethodGet)
	api.HandleFunc("/posts", postController.Create).Methods(http.MethodPost)
	api.HandleFunc("/posts", postController.MethodNotAllowed)

	return router
}
