package mail

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Campaign mirrors a Brevo campaign so the dashboard can list and audit
// campaigns without a Brevo round trip.
type Campaign struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	BrevoID   int64     `bson:"brevoId" json:"brevo_id"`
	Name      string    `bson:"name" json:"name"`
	Subject   string    `bson:"subject" json:"subject"`
	Status    string    `bson:"status" json:"status"`
	ListIDs   []int64   `bson:"listIds" json:"list_ids"`
	CreatedBy string    `bson:"createdBy" json:"created_by"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

type Repository interface {
	Insert(ctx context.Context, c *Campaign) error
	List(ctx context.Context) ([]Campaign, error)
	SetStatus(ctx context.Context, brevoID int64, status string) error
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection("mail_campaigns")}
}

func (r *MongoRepository) Insert(ctx context.Context, c *Campaign) error {
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *MongoRepository) List(ctx context.Context) ([]Campaign, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Campaign
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) SetStatus(ctx context.Context, brevoID int64, status string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"brevoId": brevoID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}})
	return err
}
