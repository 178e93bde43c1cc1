package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

type Attendance struct {
	coll *mongo.Collection
}

// OpenForDate returns the records for one organization and date where a
// clock-in exists but no clock-out. This filter is what makes the
// auto-logout job naturally idempotent.
func (r *Attendance) OpenForDate(ctx context.Context, orgID primitive.ObjectID, date string) ([]domain.Attendance, error) {
	filter := bson.M{
		"organizationId": orgID,
		"date":           date,
		"clockIn":        bson.M{"$exists": true, "$ne": nil},
		"clockOut":       nil, // matches both missing and explicit null
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find open attendance: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Attendance
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}
	return out, nil
}

// SetClockOut closes one record with the synthesized clock-out.
func (r *Attendance) SetClockOut(ctx context.Context, id primitive.ObjectID, at time.Time, totalHours float64) error {
	update := bson.M{"$set": bson.M{
		"clockOut":   at,
		"totalHours": totalHours,
		"status":     domain.AttendancePresent,
	}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("set clock-out: %w", err)
	}
	return nil
}

// ExistsForDate reports whether the employee has any record for date.
func (r *Attendance) ExistsForDate(ctx context.Context, orgID, employeeID primitive.ObjectID, date string) (bool, error) {
	filter := bson.M{"organizationId": orgID, "employeeId": employeeID, "date": date}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count attendance: %w", err)
	}
	return n > 0, nil
}

// CreateAbsent writes the absent marker as an upsert keyed by
// (organization, employee, date), so a double-fired job or a racing
// clock-in cannot produce two records for the same day.
func (r *Attendance) CreateAbsent(ctx context.Context, orgID, employeeID primitive.ObjectID, date string) error {
	filter := bson.M{"organizationId": orgID, "employeeId": employeeID, "date": date}
	update := bson.M{"$setOnInsert": bson.M{
		"organizationId": orgID,
		"employeeId":     employeeID,
		"date":           date,
		"status":         domain.AttendanceAbsent,
		"totalHours":     0,
		"createdAt":      time.Now().UTC(),
	}}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("create absent record: %w", err)
	}
	return nil
}
