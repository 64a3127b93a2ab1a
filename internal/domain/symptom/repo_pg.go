package symptom

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Create(ctx context.Context, c *SymptomCheck) error {
	c.ID = uuid.New()
	if c.MatchedConditions == nil {
		c.MatchedConditions = []string{}
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO symptom_check (id, user_id, symptoms_input, matched_conditions, recommended_specialty, urgency_level, advice)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		c.ID, c.UserID, c.SymptomsInput, c.MatchedConditions, c.RecommendedSpecialty, c.UrgencyLevel, c.Advice,
	).Scan(&c.CreatedAt)
	if db.IsForeignKeyViolation(err, "") {
		return apperr.ErrUnauthenticated
	}
	return err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*SymptomCheck, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, symptoms_input, matched_conditions, recommended_specialty, urgency_level, advice, created_at
		FROM symptom_check WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list symptom checks: %w", err)
	}
	defer rows.Close()

	var items []*SymptomCheck
	for rows.Next() {
		var c SymptomCheck
		if err := rows.Scan(&c.ID, &c.UserID, &c.SymptomsInput, &c.MatchedConditions,
			&c.RecommendedSpecialty, &c.UrgencyLevel, &c.Advice, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}
