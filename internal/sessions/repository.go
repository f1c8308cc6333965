package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository provides session persistence operations
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*Session, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// MongoRepository implements Repository using a Mongo collection
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = now.Add(DefaultTTL)
	}
	_, err := r.col.InsertOne(ctx, bson.M{
		"sessionId": s.SessionID,
		"userId":    s.UserID,
		"createdAt": s.CreatedAt,
		"expiresAt": s.ExpiresAt,
	})
	return err
}

func (r *MongoRepository) GetBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	filter := bson.M{"sessionId": sessionID, "expiresAt": bson.M{"$gt": time.Now().UTC()}}
	if err := r.col.FindOne(ctx, filter).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) DeleteBySessionID(ctx context.Context, sessionID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"sessionId": sessionID})
	return err
}

func (r *MongoRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
