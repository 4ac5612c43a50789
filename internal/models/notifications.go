package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const NotificationTypeBooking = "booking"

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Message   string             `bson:"message" json:"message"`
	Type      string             `bson:"type" json:"type"`
	BookingID primitive.ObjectID `bson:"booking_id" json:"booking_id"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *Notification) error
}

func BookingNotification(b *Booking, eventTitle string) *Notification {
	return &Notification{
		Message:   fmt.Sprintf("%s booked %d ticket(s) for %s", b.AttendeeName, b.Quantity, eventTitle),
		Type:      NotificationTypeBooking,
		BookingID: b.ID,
		CreatedAt: time.Now(),
	}
}

func (mdb *MongodbRepo) CreateNotification(ctx context.Context, n *Notification) error {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err = col.InsertOne(ctx, n)
	return err
}
