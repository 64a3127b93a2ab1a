package symptom

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *SymptomCheck) error
	// ListByUser returns the newest checks first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*SymptomCheck, error)
}
