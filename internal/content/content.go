// Package content holds the two content entities of the site: portfolio
// projects and blog posts.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/webtrio/webfolio/internal/errorz"
)

// ProjectType classifies a portfolio project.
type ProjectType string

const (
	ProjectTypeCommercial ProjectType = "commercial"
	ProjectTypeAcademic   ProjectType = "academic"
	ProjectTypePersonal   ProjectType = "personal"
)

// ParseProjectType validates a raw project type.
func ParseProjectType(raw string) (ProjectType, error) {
	switch ProjectType(raw) {
	case ProjectTypeCommercial, ProjectTypeAcademic, ProjectTypePersonal:
		return ProjectType(raw), nil
	}

	return "", fmt.Errorf("unknown project type %q", raw)
}

// Project is a portfolio entry.
type Project struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Client       string      `json:"client,omitempty"`
	Type         ProjectType `json:"type"`
	Technologies []string    `json:"technologies,omitempty"`
	Description  string      `json:"description"`
	Challenges   string      `json:"challenges,omitempty"`
	Images       []string    `json:"images,omitempty"`
	Date         string      `json:"date,omitempty"`
	Category     string      `json:"category,omitempty"`
	DemoURL      string      `json:"demoUrl,omitempty"`
	GithubURL    string      `json:"githubUrl,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Validate checks the required project fields.
func (p *Project) Validate() error {
	var invalid errorz.InvalidInput

	if p.Title == "" {
		invalid = append(invalid, errorz.Keyed{Key: "title", Err: errors.New("is required")})
	}
	if p.Description == "" {
		invalid = append(invalid, errorz.Keyed{Key: "description", Err: errors.New("is required")})
	}
	if _, err := ParseProjectType(string(p.Type)); err != nil {
		invalid = append(invalid, errorz.Keyed{Key: "type", Err: err})
	}

	if len(invalid) > 0 {
		return invalid
	}

	return nil
}

// Author is the byline on a blog post.
type Author struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Role  string `json:"role,omitempty" bson:"role,omitempty"`
	Image string `json:"image,omitempty" bson:"image,omitempty"`
}

// Post is a blog post. The Slug uniquely identifies a post.
type Post struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"`
	Category  string    `json:"category"`
	ReadTime  string    `json:"readTime,omitempty"`
	Image     string    `json:"image"`
	Content   string    `json:"content,omitempty"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Author    Author    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the required post fields.
func (p *Post) Validate() error {
	var invalid errorz.InvalidInput

	if p.Slug == "" {
		invalid = append(invalid, errorz.Keyed{Key: "slug", Err: errors.New("is required")})
	}
	if p.Title == "" {
		invalid = append(invalid, errorz.Keyed{Key: "title", Err: errors.New("is required")})
	}
	if p.Category == "" {
		invalid = append(invalid, errorz.Keyed{Key: "category", Err: errors.New("is required")})
	}
	if p.Image == "" {
		invalid = append(invalid, errorz.Keyed{Key: "image", Err: errors.New("is required")})
	}
	if p.Content == "" {
		invalid = append(invalid, errorz.Keyed{Key: "content", Err: errors.New("is required")})
	}

	if len(invalid) > 0 {
		return invalid
	}

	return nil
}

// Listing returns a copy of the post without its body, for use in
// listings where the full content is not needed.
func (p Post) Listing() Post {
	p.Content = ""
	return p
}

// Store is the persistence boundary for content entities.
//
// Create methods set the ID and timestamps on the passed entity.
// Get, Update and Delete return errorz.ErrNotFound when no entity
// matches, Create returns errorz.ErrConstraintViolated on a duplicate
// post slug.
type Store interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	CreateProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	// ListPosts returns posts without their content bodies,
	// sorted newest first.
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, slug string) (Post, error)
	CreatePost(ctx context.Context, p *Post) error
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, slug string) error
}
