// Package mongodb provides MongoDB backed implementations of the
// auth.CodeStore and auth.SessionStore interfaces.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/webtrio/webfolio/internal/auth"
	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/errorz"
	"github.com/webtrio/webfolio/internal/krypto"
)

const (
	codesCollection    = "login_codes"
	sessionsCollection = "sessions"
)

// codeDoc is the storage representation of an auth.OneTimeCode.
type codeDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Recipient string             `bson:"recipient"`
	CodeHash  string             `bson:"codeHash"`
	CreatedAt time.Time          `bson:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt"`
}

// CodeStore stores one time codes in a MongoDB collection.
type CodeStore struct {
	coll *mongo.Collection
}

func NewCodeStore(db *mongo.Database) *CodeStore {
	return &CodeStore{
		coll: db.Collection(codesCollection),
	}
}

// EnsureIndexes creates the recipient lookup index and the TTL index
// that sweeps expired codes. Safe to call on every startup.
func (s *CodeStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create login code indexes: %w", err)
	}

	return nil
}

// Issue upserts the code record for the recipient. The unique recipient
// key means a new code always replaces the outstanding one.
func (s *CodeStore) Issue(ctx context.Context, code auth.OneTimeCode) error {
	doc := codeDoc{
		Recipient: string(code.Recipient),
		CodeHash:  code.CodeHash.String(),
		CreatedAt: code.CreatedAt,
		ExpiresAt: code.ExpiresAt,
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"recipient": doc.Recipient},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

// Consume looks up the outstanding code for the recipient, matches it
// against the provided code and removes it. The final DeleteOne is
// conditional on the document id and the expiry, so when multiple
// callers race on the same code only the one whose delete removes the
// document succeeds.
func (s *CodeStore) Consume(ctx context.Context, recipient email.Address, code auth.Code, now time.Time) error {
	var doc codeDoc
	err := s.coll.FindOne(ctx, bson.M{
		"recipient": string(recipient),
		"expiresAt": bson.M{"$gt": now},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.ErrInvalidCode
		}
		return errorz.MapDBErr(err)
	}

	hash, err := krypto.ParseArgon2Hash(doc.CodeHash)
	if err != nil {
		return fmt.Errorf("stored code hash is malformed: %w", err)
	}

	if !hash.MatchBytes([]byte(code)) {
		return auth.ErrInvalidCode
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{
		"_id":       doc.ID,
		"expiresAt": bson.M{"$gt": now},
	})
	if err != nil {
		return errorz.MapDBErr(err)
	}

	// Someone else consumed the code between the find and the delete.
	if res.DeletedCount != 1 {
		return auth.ErrInvalidCode
	}

	return nil
}

// Discard removes all outstanding codes for the recipient.
func (s *CodeStore) Discard(ctx context.Context, recipient email.Address) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"recipient": string(recipient)})
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

// sessionDoc is the storage representation of an auth.Session.
// The token digest doubles as the document id.
type sessionDoc struct {
	TokenDigest string    `bson:"_id"`
	Identity    string    `bson:"identity"`
	CreatedAt   time.Time `bson:"createdAt"`
	ExpiresAt   time.Time `bson:"expiresAt"`
}

// SessionStore stores sessions in a MongoDB collection.
type SessionStore struct {
	coll *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{
		coll: db.Collection(sessionsCollection),
	}
}

// EnsureIndexes creates the TTL index that sweeps expired sessions.
// Safe to call on every startup.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	return nil
}

func (s *SessionStore) Create(ctx context.Context, sess auth.Session) error {
	_, err := s.coll.InsertOne(ctx, sessionDoc{
		TokenDigest: sess.TokenDigest,
		Identity:    string(sess.Identity),
		CreatedAt:   sess.CreatedAt,
		ExpiresAt:   sess.ExpiresAt,
	})
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

func (s *SessionStore) Resolve(ctx context.Context, tokenDigest string) (auth.Session, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": tokenDigest}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.Session{}, auth.ErrNoSession
		}
		return auth.Session{}, errorz.MapDBErr(err)
	}

	return auth.Session{
		TokenDigest: doc.TokenDigest,
		Identity:    email.Address(doc.Identity),
		CreatedAt:   doc.CreatedAt,
		ExpiresAt:   doc.ExpiresAt,
	}, nil
}

func (s *SessionStore) Revoke(ctx context.Context, tokenDigest string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": tokenDigest})
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}
