package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/webtrio/webfolio/internal/auth"
	"github.com/webtrio/webfolio/internal/content"
	"github.com/webtrio/webfolio/internal/errorz"
)

// writeAPIError maps domain errors to JSON API responses.
func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidInput errorz.InvalidInput

	switch {
	case errors.Is(err, errorz.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageJSON{Message: "Not found"})
	case errors.Is(err, errorz.ErrConstraintViolated):
		writeJSON(w, http.StatusConflict, messageJSON{Message: "Already exists"})
	case errors.Is(err, auth.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, messageJSON{Message: "Unauthorized"})
	case errors.As(err, &invalidInput):
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: invalidInput.Error()})
	default:
		s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, messageJSON{Message: "Internal server error"})
	}
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.ContentStore.ListProjects(r.Context())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.deps.ContentStore.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageJSON{Message: "Project not found"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var project content.Project
	if err := readJSON(r, &project); err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Invalid request body"})
		return
	}

	if err := project.Validate(); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	if err := s.deps.ContentStore.CreateProject(r.Context(), &project); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var project content.Project
	if err := readJSON(r, &project); err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Invalid request body"})
		return
	}

	// The path is authoritative for which project is updated.
	project.ID = r.PathValue("id")

	if err := project.Validate(); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	if err := s.deps.ContentStore.UpdateProject(r.Context(), &project); err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageJSON{Message: "Project not found"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.deps.ContentStore.DeleteProject(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageJSON{Message: "Project not found"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageJSON{Message: "Project deleted successfully"})
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.deps.ContentStore.ListPosts(r.Context())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.ContentStore.GetPost(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageJSON{Message: "Blog not found"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var post content.Post
	if err := readJSON(r, &post); err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Invalid request body"})
		return
	}

	post.Slug = strings.TrimSpace(post.Slug)

	if err := post.Validate(); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	if err := s.deps.ContentStore.CreatePost(r.Context(), &post); err != nil {
		if errors.Is(err, errorz.ErrConstraintViolated) {
			writeJSON(w, http.StatusConflict, messageJSON{Message: "A blog with this slug already exists"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var post content.Post
	if err := readJSON(r, &post); err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "Invalid request body"})
		return
	}

	// The path is authoritative for which post is updated.
	post.Slug = r.PathValue("slug")

	if err := post.Validate(); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	if err := s.deps.ContentStore.UpdatePost(r.Context(), &post); err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageJSON{Message: "Blog not found"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	err := s.deps.ContentStore.DeletePost(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, errorz.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageJSON{Message: "Blog not found"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageJSON{Message: "Blog deleted successfully"})
}
