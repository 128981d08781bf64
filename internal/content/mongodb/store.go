// Package mongodb provides a MongoDB backed implementation of the
// content.Store interface.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/webtrio/webfolio/internal/content"
	"github.com/webtrio/webfolio/internal/errorz"
)

const (
	projectsCollection = "projects"
	postsCollection    = "posts"
)

// Store stores projects and posts in MongoDB collections.
type Store struct {
	projects *mongo.Collection
	posts    *mongo.Collection

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		projects: db.Collection(projectsCollection),
		posts:    db.Collection(postsCollection),
		NowFunc:  time.Now,
	}
}

// EnsureIndexes creates the unique slug index on posts.
// Safe to call on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create post indexes: %w", err)
	}

	return nil
}

type projectDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Client       string             `bson:"client,omitempty"`
	Type         string             `bson:"type"`
	Technologies []string           `bson:"technologies,omitempty"`
	Description  string             `bson:"description"`
	Challenges   string             `bson:"challenges,omitempty"`
	Images       []string           `bson:"images,omitempty"`
	Date         string             `bson:"date,omitempty"`
	Category     string             `bson:"category,omitempty"`
	DemoURL      string             `bson:"demoUrl,omitempty"`
	GithubURL    string             `bson:"githubUrl,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func projectToDoc(p *content.Project) projectDoc {
	return projectDoc{
		Title:        p.Title,
		Client:       p.Client,
		Type:         string(p.Type),
		Technologies: p.Technologies,
		Description:  p.Description,
		Challenges:   p.Challenges,
		Images:       p.Images,
		Date:         p.Date,
		Category:     p.Category,
		DemoURL:      p.DemoURL,
		GithubURL:    p.GithubURL,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d projectDoc) toProject() content.Project {
	return content.Project{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Client:       d.Client,
		Type:         content.ProjectType(d.Type),
		Technologies: d.Technologies,
		Description:  d.Description,
		Challenges:   d.Challenges,
		Images:       d.Images,
		Date:         d.Date,
		Category:     d.Category,
		DemoURL:      d.DemoURL,
		GithubURL:    d.GithubURL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (s *Store) ListProjects(ctx context.Context) ([]content.Project, error) {
	cursor, err := s.projects.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	var docs []projectDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	out := make([]content.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toProject())
	}

	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (content.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return content.Project{}, errorz.ErrNotFound
	}

	var doc projectDoc
	err = s.projects.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		return content.Project{}, errorz.MapDBErr(err)
	}

	return doc.toProject(), nil
}

func (s *Store) CreateProject(ctx context.Context, p *content.Project) error {
	now := s.NowFunc()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.projects.InsertOne(ctx, projectToDoc(p))
	if err != nil {
		return errorz.MapDBErr(err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *content.Project) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return errorz.ErrNotFound
	}

	var stored projectDoc
	err = s.projects.FindOne(ctx, bson.M{"_id": oid}).Decode(&stored)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = s.NowFunc()

	doc := projectToDoc(p)
	doc.ID = oid

	_, err = s.projects.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	return errorz.MapDBErr(err)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errorz.ErrNotFound
	}

	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if res.DeletedCount != 1 {
		return errorz.ErrNotFound
	}

	return nil
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Slug      string             `bson:"slug"`
	Title     string             `bson:"title"`
	Date      string             `bson:"date,omitempty"`
	Category  string             `bson:"category"`
	ReadTime  string             `bson:"readTime,omitempty"`
	Image     string             `bson:"image"`
	Content   string             `bson:"content,omitempty"`
	Excerpt   string             `bson:"excerpt,omitempty"`
	Author    content.Author     `bson:"author,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func postToDoc(p *content.Post) postDoc {
	return postDoc{
		Slug:      p.Slug,
		Title:     p.Title,
		Date:      p.Date,
		Category:  p.Category,
		ReadTime:  p.ReadTime,
		Image:     p.Image,
		Content:   p.Content,
		Excerpt:   p.Excerpt,
		Author:    p.Author,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d postDoc) toPost() content.Post {
	return content.Post{
		ID:        d.ID.Hex(),
		Slug:      d.Slug,
		Title:     d.Title,
		Date:      d.Date,
		Category:  d.Category,
		ReadTime:  d.ReadTime,
		Image:     d.Image,
		Content:   d.Content,
		Excerpt:   d.Excerpt,
		Author:    d.Author,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (s *Store) ListPosts(ctx context.Context) ([]content.Post, error) {
	cursor, err := s.posts.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetProjection(bson.M{"content": 0}),
	)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	out := make([]content.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toPost())
	}

	return out, nil
}

func (s *Store) GetPost(ctx context.Context, slug string) (content.Post, error) {
	var doc postDoc
	err := s.posts.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		return content.Post{}, errorz.MapDBErr(err)
	}

	return doc.toPost(), nil
}

func (s *Store) CreatePost(ctx context.Context, p *content.Post) error {
	now := s.NowFunc()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.posts.InsertOne(ctx, postToDoc(p))
	if err != nil {
		return errorz.MapDBErr(err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, p *content.Post) error {
	var stored postDoc
	err := s.posts.FindOne(ctx, bson.M{"slug": p.Slug}).Decode(&stored)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	p.ID = stored.ID.Hex()
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = s.NowFunc()

	doc := postToDoc(p)
	doc.ID = stored.ID

	_, err = s.posts.ReplaceOne(ctx, bson.M{"_id": stored.ID}, doc)
	return errorz.MapDBErr(err)
}

func (s *Store) DeletePost(ctx context.Context, slug string) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if res.DeletedCount != 1 {
		return errorz.ErrNotFound
	}

	return nil
}
