package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const timelineCollection = "order_timeline"

type timelineDoc struct {
	OrderID string    `bson:"order_id"`
	Type    string    `bson:"type"`
	From    string    `bson:"from,omitempty"`
	To      string    `bson:"to"`
	Note    string    `bson:"note,omitempty"`
	At      time.Time `bson:"at"`
}

type MongoTimeline struct {
	coll *mongo.Collection
}

func NewMongoTimeline(db *mongo.Database) *MongoTimeline {
	return &MongoTimeline{coll: db.Collection(timelineCollection)}
}

func (t *MongoTimeline) EnsureIndexes(ctx context.Context) error {
	_, err := t.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("timeline index: %w", err)
	}
	return nil
}

func (t *MongoTimeline) Append(ctx context.Context, ev models.TimelineEvent) error {
	_, err := t.coll.InsertOne(ctx, timelineDoc{
		OrderID: ev.OrderID.String(),
		Type:    ev.Type,
		From:    string(ev.From),
		To:      string(ev.To),
		Note:    ev.Note,
		At:      ev.At,
	})
	if err != nil {
		return fmt.Errorf("timeline insert: %w", err)
	}
	return nil
}

func (t *MongoTimeline) List(ctx context.Context, orderID uuid.UUID) ([]models.TimelineEvent, error) {
	cur, err := t.coll.Find(ctx,
		bson.D{{Key: "order_id", Value: orderID.String()}},
		options.Find().SetSort(bson.D{{Key: "at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("timeline find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []timelineDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("timeline decode: %w", err)
	}

	out := make([]models.TimelineEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.TimelineEvent{
			OrderID: orderID,
			Type:    d.Type,
			From:    models.OrderStatus(d.From),
			To:      models.OrderStatus(d.To),
			Note:    d.Note,
			At:      d.At,
		})
	}
	return out, nil
}
