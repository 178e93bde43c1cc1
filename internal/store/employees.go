package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

type Employees struct {
	coll *mongo.Collection
}

// ListActive returns the active employees of one organization.
func (r *Employees) ListActive(ctx context.Context, orgID primitive.ObjectID) ([]domain.Employee, error) {
	filter := bson.M{"organizationId": orgID, "active": true}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Employee
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode employees: %w", err)
	}
	return out, nil
}
