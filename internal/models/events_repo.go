package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var event Event
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("event %s: %w", id.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) CommitSeats(ctx context.Context, id primitive.ObjectID, quantity int) (*Event, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{
		"_id":             id,
		"status":          EventStatusUpcoming,
		"available_seats": bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{
			"available_seats": -quantity,
			"booking_count":   quantity,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event Event
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a vanished event from an exhausted one.
		if _, getErr := mdb.GetEventByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("event %s: %w", id.Hex(), ErrInsufficientInventory)
	}
	if err != nil {
		return nil, fmt.Errorf("error committing seats: %w", err)
	}

	if event.AvailableSeats == 0 {
		// the seats are already committed; a missed flag only delays the sold-out status
		marked, err := mdb.markSoldOut(ctx, col, id)
		if err != nil {
			mdb.logger.Warn("failed to mark event sold out", "event_id", id.Hex(), "error", err)
		} else if marked {
			event.Status = EventStatusSoldOut
		}
	}

	return &event, nil
}

func (mdb *MongodbRepo) markSoldOut(ctx context.Context, col *mongo.Collection, id primitive.ObjectID) (bool, error) {
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "available_seats": 0, "status": EventStatusUpcoming},
		bson.M{"$set": bson.M{"status": EventStatusSoldOut, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("error marking event sold out: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (mdb *MongodbRepo) CountEvents(ctx context.Context) (int64, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %v", err)
	}
	return col.CountDocuments(ctx, bson.M{})
}
