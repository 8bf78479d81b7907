package interfaces

import (
	"context"
	"errors"

	"transfer-pricing/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by repositories when no document matches the id.
var ErrNotFound = errors.New("document not found")

type RouteRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Route, error)
}
