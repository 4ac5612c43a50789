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
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentOrder binds a gateway order to the booking it was created for.
// Amount is in the gateway's minor currency unit.
type PaymentOrder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID   string             `bson:"order_id" json:"id"`
	BookingID primitive.ObjectID `bson:"booking_id" json:"booking_id"`
	UserID    uuid.UUID          `bson:"user_id" json:"-"`
	Amount    int64              `bson:"amount" json:"amount"`
	Currency  string             `bson:"currency" json:"currency"`
	Receipt   string             `bson:"receipt" json:"receipt"`
	KeyID     string             `bson:"-" json:"key_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// PaymentAttempt records one verification call, successful or not.
type PaymentAttempt struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID     primitive.ObjectID `bson:"booking_id" json:"booking_id"`
	UserID        uuid.UUID          `bson:"user_id" json:"user_id"`
	OrderID       string             `bson:"razorpay_order_id" json:"razorpay_order_id"`
	PaymentID     string             `bson:"razorpay_payment_id" json:"razorpay_payment_id"`
	Signature     string             `bson:"razorpay_signature" json:"-"`
	Amount        int64              `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Status        PaymentStatus      `bson:"status" json:"status"`
	FailureReason string             `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

type PaymentRepo interface {
	SaveOrder(ctx context.Context, order *PaymentOrder) error
	GetOrder(ctx context.Context, orderID string) (*PaymentOrder, error)
	RecordAttempt(ctx context.Context, attempt *PaymentAttempt) error
}

func (mdb *MongodbRepo) SaveOrder(ctx context.Context, order *PaymentOrder) error {
	col, err := mdb.GetCollection(ctx, PaymentOrdersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert payment order: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetOrder(ctx context.Context, orderID string) (*PaymentOrder, error) {
	col, err := mdb.GetCollection(ctx, PaymentOrdersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var order PaymentOrder
	err = col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("payment order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding payment order: %w", err)
	}
	return &order, nil
}

func (mdb *MongodbRepo) RecordAttempt(ctx context.Context, attempt *PaymentAttempt) error {
	col, err := mdb.GetCollection(ctx, PaymentsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if attempt.ID.IsZero() {
		attempt.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("failed to insert payment attempt: %w", err)
	}
	return nil
}
