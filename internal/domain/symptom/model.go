package symptom

import (
	"time"

	"github.com/google/uuid"
)

// SymptomCheck is the append-only record of one analysis. UserID is nil for
// anonymous checks.
type SymptomCheck struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	UserID               *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	SymptomsInput        string     `db:"symptoms_input" json:"symptoms_input"`
	MatchedConditions    []string   `db:"matched_conditions" json:"matched_conditions"`
	RecommendedSpecialty string     `db:"recommended_specialty" json:"recommended_specialty"`
	UrgencyLevel         string     `db:"urgency_level" json:"urgency_level"`
	Advice               string     `db:"advice" json:"advice"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

func newCheck(userID *uuid.UUID, input string, rec Recommendation) *SymptomCheck {
	ids := make([]string, 0, len(rec.Matches))
	for _, m := range rec.Matches {
		ids = append(ids, m.SymptomID)
	}
	return &SymptomCheck{
		UserID:               userID,
		SymptomsInput:        input,
		MatchedConditions:    ids,
		RecommendedSpecialty: rec.PrimarySpecialty,
		UrgencyLevel:         rec.Urgency,
		Advice:               rec.Advice,
	}
}
