package posts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists scheduled posts and their status history.
type Repository interface {
	Insert(ctx context.Context, p *ScheduledPost) error
	GetByID(ctx context.Context, id string) (*ScheduledPost, error)
	List(ctx context.Context) ([]ScheduledPost, error)
	ListByUsername(ctx context.Context, username string) ([]ScheduledPost, error)
	// ClaimDue atomically moves up to limit due posts from scheduled to
	// posting_in_progress and returns the claimed records.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]ScheduledPost, error)
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	SetStatus(ctx context.Context, id string, status Status, errorMessage, mediaID string, attemptAt time.Time) error
	Delete(ctx context.Context, id string) error

	AppendHistory(ctx context.Context, h *StatusHistory) error
	ListHistory(ctx context.Context, postID string) ([]StatusHistory, error)
}

type MongoRepository struct {
	posts   *mongo.Collection
	history *mongo.Collection
}

func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	r := &MongoRepository{
		posts:   db.Collection("scheduled_posts"),
		history: db.Collection("post_status_history"),
	}

	_, err := r.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}}},
		{Keys: bson.D{{Key: "campaignId", Value: 1}}},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	_, err = r.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoRepository) Insert(ctx context.Context, p *ScheduledPost) error {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.posts.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*ScheduledPost, error) {
	var p ScheduledPost
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]ScheduledPost, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) ListByUsername(ctx context.Context, username string) ([]ScheduledPost, error) {
	return r.find(ctx, bson.M{"username": username})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]ScheduledPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: -1}})
	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []ScheduledPost
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]ScheduledPost, error) {
	var claimed []ScheduledPost
	for len(claimed) < limit {
		filter := bson.M{
			"status":      StatusScheduled,
			"scheduledAt": bson.M{"$lte": now},
		}
		update := bson.M{"$set": bson.M{
			"status":    StatusPosting,
			"updatedAt": time.Now().UTC(),
		}}
		opts := options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "scheduledAt", Value: 1}}).
			SetReturnDocument(options.After)

		var p ScheduledPost
		err := r.posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return claimed, err
		}
		claimed = append(claimed, p)
	}
	return claimed, nil
}

func (r *MongoRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) SetStatus(ctx context.Context, id string, status Status, errorMessage, mediaID string, attemptAt time.Time) error {
	fields := bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}
	if errorMessage != "" {
		fields["errorMessage"] = errorMessage
	}
	if mediaID != "" {
		fields["mediaId"] = mediaID
	}
	if !attemptAt.IsZero() {
		fields["lastAttemptAt"] = attemptAt
	}
	_, err := r.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) AppendHistory(ctx context.Context, h *StatusHistory) error {
	if h.ID == "" {
		h.ID = primitive.NewObjectID().Hex()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := r.history.InsertOne(ctx, h)
	return err
}

func (r *MongoRepository) ListHistory(ctx context.Context, postID string) ([]StatusHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.history.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []StatusHistory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
