package persistence

import (
	"context"

	"blog-social/domain/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const statsCollection = "social_stats"

// StatsRepositoryMongo keeps snapshots in a Mongo collection when one is configured.
type StatsRepositoryMongo struct {
	coll *mongo.Collection
}

func NewStatsRepositoryMongo(db *mongo.Database) *StatsRepositoryMongo {
	return &StatsRepositoryMongo{coll: db.Collection(statsCollection)}
}

func (r *StatsRepositoryMongo) Append(ctx context.Context, s *model.SocialStats) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CollectedAt = s.CollectedAt.UTC()
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

func (r *StatsRepositoryMongo) ListByPublication(ctx context.Context, publicationID string) ([]*model.SocialStats, error) {
	opts := options.Find().SetSort(bson.D{{Key: "collected_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"publication_id": publicationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	list := make([]*model.SocialStats, 0)
	for cur.Next(ctx) {
		var s model.SocialStats
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, cur.Err()
}
