package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

type Organizations struct {
	coll *mongo.Collection
}

// ListAutomationEnabled returns active organizations that opted into
// attendance automation.
func (r *Organizations) ListAutomationEnabled(ctx context.Context) ([]domain.Organization, error) {
	filter := bson.M{"active": true, "automationEnabled": true}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Organization
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode organizations: %w", err)
	}
	return out, nil
}
