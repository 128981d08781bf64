package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webtrio/webfolio/internal/errorz"
)

// MemoryStore is an in-memory Store. It's used in tests and local
// development, production deployments use the mongodb store.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]Project
	posts    map[string]Post

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]Project),
		posts:    make(map[string]Post),
		NowFunc:  time.Now,
	}
}

func (s *MemoryStore) ListProjects(_ context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, errorz.ErrNotFound
	}

	return p, nil
}

func (s *MemoryStore) CreateProject(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.NowFunc()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.projects[p.ID] = *p
	return nil
}

func (s *MemoryStore) UpdateProject(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.projects[p.ID]
	if !ok {
		return errorz.ErrNotFound
	}

	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = s.NowFunc()

	s.projects[p.ID] = *p
	return nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return errorz.ErrNotFound
	}

	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) ListPosts(_ context.Context) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p.Listing())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *MemoryStore) GetPost(_ context.Context, slug string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[slug]
	if !ok {
		return Post{}, errorz.ErrNotFound
	}

	return p, nil
}

func (s *MemoryStore) CreatePost(_ context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[p.Slug]; ok {
		return errorz.ErrConstraintViolated
	}

	now := s.NowFunc()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.posts[p.Slug] = *p
	return nil
}

func (s *MemoryStore) UpdatePost(_ context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[p.Slug]
	if !ok {
		return errorz.ErrNotFound
	}

	p.ID = stored.ID
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = s.NowFunc()

	s.posts[p.Slug] = *p
	return nil
}

func (s *MemoryStore) DeletePost(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[slug]; !ok {
		return errorz.ErrNotFound
	}

	delete(s.posts, slug)
	return nil
}
