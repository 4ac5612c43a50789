package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the booking flow relies on. Safe to call on
// every start.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	bookings, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return err
	}
	_, err = bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	orders, err := mdb.GetCollection(ctx, PaymentOrdersColName)
	if err != nil {
		return err
	}
	_, err = orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create payment order index: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}
	return booking, nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var booking Booking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking: %w", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return mdb.findBookings(ctx, bson.M{"user_id": userID}, opts)
}

func (mdb *MongodbRepo) ListBookingsByStatus(ctx context.Context, status BookingStatus) ([]*Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	return mdb.findBookings(ctx, bson.M{"status": status}, opts)
}

func (mdb *MongodbRepo) findBookings(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	for cursor.Next(ctx) {
		var b Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, &b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

func (mdb *MongodbRepo) ClaimForConfirmation(ctx context.Context, id primitive.ObjectID, proof PaymentProof) (*Booking, error) {
	filter := bson.M{
		"_id":                 id,
		"status":              BookingStatusPending,
		"razorpay_payment_id": bson.M{"$exists": false},
	}
	return mdb.transition(ctx, filter, bson.M{
		"status":              BookingStatusPaymentVerified,
		"razorpay_order_id":   proof.OrderID,
		"razorpay_payment_id": proof.PaymentID,
		"razorpay_signature":  proof.Signature,
	})
}

func (mdb *MongodbRepo) MarkConfirmed(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	return mdb.transition(ctx,
		bson.M{"_id": id, "status": BookingStatusPaymentVerified},
		bson.M{"status": BookingStatusConfirmed, "confirmed_at": time.Now()},
	)
}

func (mdb *MongodbRepo) MarkReconciliationNeeded(ctx context.Context, id primitive.ObjectID, reason string) (*Booking, error) {
	return mdb.transition(ctx,
		bson.M{"_id": id, "status": BookingStatusPaymentVerified},
		bson.M{"status": BookingStatusReconciliationNeeded, "reconciliation_reason": reason},
	)
}

func (mdb *MongodbRepo) CancelBooking(ctx context.Context, id primitive.ObjectID) (*Booking, error) {
	return mdb.transition(ctx,
		bson.M{"_id": id, "status": BookingStatusPending},
		bson.M{"status": BookingStatusCancelled, "cancelled_at": time.Now()},
	)
}

func (mdb *MongodbRepo) CancelStalePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %v", err)
	}

	now := time.Now()
	res, err := col.UpdateMany(ctx,
		bson.M{
			"status":     BookingStatusPending,
			"created_at": bson.M{"$lt": createdBefore},
		},
		bson.M{"$set": bson.M{
			"status":       BookingStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("error cancelling stale bookings: %w", err)
	}
	return res.ModifiedCount, nil
}

func (mdb *MongodbRepo) FlagPaidCancellation(ctx context.Context, id primitive.ObjectID, proof PaymentProof, reason string) (*Booking, error) {
	filter := bson.M{
		"_id":                 id,
		"status":              BookingStatusCancelled,
		"razorpay_payment_id": bson.M{"$exists": false},
	}
	return mdb.transition(ctx, filter, bson.M{
		"status":                BookingStatusReconciliationNeeded,
		"razorpay_order_id":     proof.OrderID,
		"razorpay_payment_id":   proof.PaymentID,
		"razorpay_signature":    proof.Signature,
		"reconciliation_reason": reason,
	})
}

func (mdb *MongodbRepo) EscalateStaleVerified(ctx context.Context, updatedBefore time.Time, reason string) (int64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.UpdateMany(ctx,
		bson.M{
			"status":     BookingStatusPaymentVerified,
			"updated_at": bson.M{"$lt": updatedBefore},
		},
		bson.M{"$set": bson.M{
			"status":                BookingStatusReconciliationNeeded,
			"reconciliation_reason": reason,
			"updated_at":            time.Now(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("error escalating stuck confirmations: %w", err)
	}
	return res.ModifiedCount, nil
}

func (mdb *MongodbRepo) ConfirmedTotals(ctx context.Context) (*BookingTotals, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: BookingStatusConfirmed}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "earnings", Value: bson.D{{Key: "$sum", Value: "$total_amount"}}},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating bookings: %w", err)
	}

	var rows []BookingTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding totals: %w", err)
	}
	if len(rows) == 0 {
		return &BookingTotals{}, nil
	}
	return &rows[0], nil
}

// transition applies set to the booking matched by filter. A miss is reported as
// ErrNotFound when the booking does not exist and ErrInvalidState otherwise.
func (mdb *MongodbRepo) transition(ctx context.Context, filter bson.M, set bson.M) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking Booking
	err = col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		id, _ := filter["_id"].(primitive.ObjectID)
		if _, getErr := mdb.GetBookingByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), ErrInvalidState)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating booking: %w", err)
	}
	return &booking, nil
}
