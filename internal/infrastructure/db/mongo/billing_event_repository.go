package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

const billingEventsCollection = "billing_events"

// BillingEventRepository implements ports.BillingEventLog.
type BillingEventRepository struct {
	col *mongo.Collection
}

func NewBillingEventRepository(db *mongo.Database) *BillingEventRepository {
	return &BillingEventRepository{col: db.Collection(billingEventsCollection)}
}

type billingEventDoc struct {
	domain.BillingEvent `bson:",inline"`
	Payload             string     `bson:"payload,omitempty"`
	ProcessedAt         *time.Time `bson:"processed_at,omitempty"`
	Result              string     `bson:"result,omitempty"`
	Error               string     `bson:"error,omitempty"`
}

// Record inserts the event. Recording the same event id twice is a no-op.
func (r *BillingEventRepository) Record(ctx context.Context, event domain.BillingEvent) error {
	doc := billingEventDoc{BillingEvent: event, Payload: string(event.Payload)}
	if doc.ReceivedAt.IsZero() {
		doc.ReceivedAt = time.Now().UTC()
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert billing event: %w", err)
	}
	return nil
}

// MarkProcessed stamps the outcome of applying the event.
func (r *BillingEventRepository) MarkProcessed(ctx context.Context, eventID, result string, procErr error) error {
	set := bson.M{
		"processed_at": time.Now().UTC(),
		"result":       result,
	}
	if procErr != nil {
		set["error"] = procErr.Error()
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"event_id": eventID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mark billing event: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the billing events collection.
func (r *BillingEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "received_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
