package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/magpress/magpress/pkg/errors"
)

// ExportRecord describes one finished export for audit and billing.
type ExportRecord struct {
	Identity  string        `bson:"identity"`
	Template  string        `bson:"template"`
	Kind      string        `bson:"kind"`
	Location  string        `bson:"location"`
	Pages     int           `bson:"pages"`
	Duration  time.Duration `bson:"duration_ns"`
	CreatedAt time.Time     `bson:"created_at"`
	Meta      ExportMeta    `bson:"meta"`
}

// ExportMeta captures the render settings an export ran with.
type ExportMeta struct {
	Scale      float64 `bson:"scale"`
	ShiftRatio float64 `bson:"shift_ratio"`
}

// ExportLog records finished exports. Logging is advisory: callers treat a
// failed Record as a warning, never as a failed export.
type ExportLog interface {
	Record(ctx context.Context, rec ExportRecord) error
	Close(ctx context.Context) error
}

// NullExportLog discards records.
type NullExportLog struct{}

// Record does nothing.
func (NullExportLog) Record(context.Context, ExportRecord) error { return nil }

// Close does nothing.
func (NullExportLog) Close(context.Context) error { return nil }

// MongoExportLog appends export records to the "template_exports"
// collection.
type MongoExportLog struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoExportLog connects to MongoDB and verifies the connection.
func NewMongoExportLog(ctx context.Context, uri, database string) (*MongoExportLog, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect export log")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping export log")
	}
	return &MongoExportLog{
		client: client,
		coll:   client.Database(database).Collection("template_exports"),
	}, nil
}

// Record inserts one export record.
func (l *MongoExportLog) Record(ctx context.Context, rec ExportRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := l.coll.InsertOne(ctx, rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "record export")
	}
	return nil
}

// Close disconnects the client.
func (l *MongoExportLog) Close(ctx context.Context) error {
	return l.client.Disconnect(ctx)
}

// Ensure both implementations satisfy ExportLog.
var (
	_ ExportLog = NullExportLog{}
	_ ExportLog = (*MongoExportLog)(nil)
)
