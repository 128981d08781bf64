// Package web exposes the site pages and the JSON API over HTTP.
package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/webtrio/webfolio/internal"
	"github.com/webtrio/webfolio/internal/auth"
	"github.com/webtrio/webfolio/internal/content"
	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/errorz"
	"github.com/webtrio/webfolio/internal/media"
)

// ViewRenderer renders named views with the given data.
type ViewRenderer interface {
	Render(w io.Writer, name string, data any) error
}

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger       *slog.Logger
	ViewRenderer ViewRenderer
	AuthService  *auth.Service
	ContentStore content.Store
	Uploader     media.Uploader
	DistFS       http.FileSystem
}

// ServerConfig is the configuration for the server.
type ServerConfig struct {
	// SecureCookie controls the Secure attribute on the session cookie.
	// Disabled in local development, enabled everywhere else.
	SecureCookie bool
}

type Server struct {
	deps    *ServerDeps
	cfg     ServerConfig
	mux     *http.ServeMux
	handler http.Handler
}

func NewServer(deps *ServerDeps, cfg ServerConfig) *Server {
	s := &Server{
		deps: deps,
		cfg:  cfg,
		mux:  http.NewServeMux(),
	}

	// Site pages.
	s.mux.HandleFunc("GET /{$}", s.homePage)
	s.mux.HandleFunc("GET /projects/{id}", s.projectPage)
	s.mux.HandleFunc("GET /blogs", s.blogsPage)
	s.mux.HandleFunc("GET /blogs/{slug}", s.blogPage)
	s.mux.HandleFunc("GET /admin", s.staticHandler("admin"))

	// Auth API.
	s.mux.HandleFunc("POST /api/auth/send-otp", s.sendOTP)
	s.mux.HandleFunc("POST /api/auth/verify-otp", s.verifyOTP)
	s.mux.HandleFunc("GET /api/auth/check", s.checkAuth)
	s.mux.HandleFunc("POST /api/auth/logout", s.logout)

	// Content API. Reads are public, writes require a session.
	s.mux.HandleFunc("GET /api/projects", s.listProjects)
	s.mux.HandleFunc("GET /api/projects/{id}", s.getProject)
	s.mux.Handle("POST /api/projects", s.adminOnly(s.createProject))
	s.mux.Handle("PUT /api/projects/{id}", s.adminOnly(s.updateProject))
	s.mux.Handle("DELETE /api/projects/{id}", s.adminOnly(s.deleteProject))

	s.mux.HandleFunc("GET /api/blogs", s.listPosts)
	s.mux.HandleFunc("GET /api/blogs/{slug}", s.getPost)
	s.mux.Handle("POST /api/blogs", s.adminOnly(s.createPost))
	s.mux.Handle("PUT /api/blogs/{slug}", s.adminOnly(s.updatePost))
	s.mux.Handle("DELETE /api/blogs/{slug}", s.adminOnly(s.deletePost))

	// Media API.
	s.mux.Handle("POST /api/upload", s.adminOnly(s.upload))

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(s.deps.DistFS)))

	middlewares := []func(http.Handler) http.Handler{
		s.session,
	}
	s.handler = s.mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		s.handler = middlewares[i](s.handler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) staticHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.writeView(w, r, name, nil)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
	}
}

func (s *Server) homePage(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.ContentStore.ListProjects(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	posts, err := s.deps.ContentStore.ListPosts(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	data := struct {
		Projects []content.Project
		Posts    []content.Post
	}{
		Projects: projects,
		Posts:    posts,
	}

	if err := s.writeView(w, r, "home", data); err != nil {
		s.handleError(w, r, err)
	}
}

func (s *Server) projectPage(w http.ResponseWriter, r *http.Request) {
	project, err := s.deps.ContentStore.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.writeView(w, r, "project", project); err != nil {
		s.handleError(w, r, err)
	}
}

func (s *Server) blogsPage(w http.ResponseWriter, r *http.Request) {
	posts, err := s.deps.ContentStore.ListPosts(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.writeView(w, r, "blogs", posts); err != nil {
		s.handleError(w, r, err)
	}
}

func (s *Server) blogPage(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.ContentStore.GetPost(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.writeView(w, r, "blog", post); err != nil {
		s.handleError(w, r, err)
	}
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, name string, data any) error {
	identity, ok := identityFromContext(r.Context())

	viewData := struct {
		Global any
		View   any
	}{
		Global: struct {
			Version    string
			IsLoggedIn bool
			Identity   email.Address
		}{
			Version:    internal.BuildRevision,
			IsLoggedIn: ok,
			Identity:   identity,
		},
		View: data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.deps.ViewRenderer.Render(w, name, viewData)
}

// handleError writes plain error responses for page handlers.
// API handlers use writeAPIError instead.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errorz.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var invalidInput errorz.InvalidInput
	if errors.As(err, &invalidInput) {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
