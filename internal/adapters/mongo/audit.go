package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

// AuditLog is keyed by event type and booking id, so a redelivered event
// lands on the same document.
type AuditLog struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    string    `bson:"user_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, id, action, userID string, at time.Time, data bson.M) error {
	log := AuditLog{
		ID:        id,
		Action:    action,
		UserID:    userID,
		Timestamp: at,
		Data:      data,
	}
	_, err := a.coll.InsertOne(ctx, log)
	if mongo.IsDuplicateKeyError(err) {
		a.logger.WithField("audit_id", id).Debug("audit log already recorded")
		return nil
	}
	if err != nil {
		a.logger.WithError(err).WithField("audit_id", id).Error("failed to insert audit log")
		return errors.Wrap(err, "insert audit log")
	}
	return nil
}

func (a *AuditLogger) LogBookingEvent(ctx context.Context, ev domain.BookingEvent) error {
	data := bson.M{
		"booking_id":  ev.BookingID.String(),
		"show_id":     ev.ShowID,
		"seat_number": ev.SeatNumber,
		"status":      string(ev.Status),
	}
	return a.LogEvent(ctx, ev.Type+":"+ev.BookingID.String(), ev.Type, ev.UserID, ev.OccurredAt, data)
}

// History returns the audit trail of a user, oldest first.
func (a *AuditLogger) History(ctx context.Context, userID string) ([]AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := a.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find audit logs")
	}
	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, errors.Wrap(err, "decode audit logs")
	}
	return logs, nil
}
