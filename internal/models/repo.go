package models

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

const (
	DefaultDbName = "eventzo"

	EventsColName        = "events"
	BookingsColName      = "bookings"
	PaymentOrdersColName = "payment_orders"
	PaymentsColName      = "payments"
	NotificationsColName = "notifications"
)

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
	}
}

// MongodbRepo implements every Mongo-backed repository of the service.
type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
	logger        *slog.Logger
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDbName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
		logger:        slog.Default(),
	}
}

// WithLogger sets the logger used for writes whose failure does not fail the call.
func (mdb *MongodbRepo) WithLogger(logger *slog.Logger) *MongodbRepo {
	if logger != nil {
		mdb.logger = logger
	}
	return mdb
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}
