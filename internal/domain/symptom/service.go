package symptom

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/platform/apperr"
)

const (
	// RecommendedDoctors caps the doctors suggested with a check.
	RecommendedDoctors = 4
	HistoryLimit       = 20
)

// DoctorFinder lists available doctors of a specialty.
type DoctorFinder interface {
	AvailableBySpecialty(ctx context.Context, specialty directory.Specialty, limit int) ([]*directory.DoctorProfile, error)
}

// CheckResult is a recommendation plus the doctors who can act on it.
type CheckResult struct {
	Recommendation
	Doctors []*directory.DoctorProfile `json:"doctors"`
	CheckID *uuid.UUID                 `json:"check_id,omitempty"`
}

type Service struct {
	analyzer *Analyzer
	repo     Repository
	doctors  DoctorFinder
	logger   zerolog.Logger
}

func NewService(analyzer *Analyzer, repo Repository, doctors DoctorFinder, logger zerolog.Logger) *Service {
	return &Service{analyzer: analyzer, repo: repo, doctors: doctors, logger: logger}
}

func (s *Service) Analyzer() *Analyzer { return s.analyzer }

// Check analyzes text and suggests doctors for the primary specialty. The
// check is recorded when userID is not uuid.Nil.
func (s *Service) Check(ctx context.Context, userID uuid.UUID, text string) (*CheckResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("symptoms", "please describe your symptoms")
	}

	res := &CheckResult{Recommendation: s.analyzer.Analyze(text), Doctors: []*directory.DoctorProfile{}}
	if spec := directory.Specialty(res.PrimarySpecialty); spec.Valid() {
		docs, err := s.doctors.AvailableBySpecialty(ctx, spec, RecommendedDoctors)
		if err != nil {
			return nil, fmt.Errorf("list recommended doctors: %w", err)
		}
		if docs != nil {
			res.Doctors = docs
		}
	} else {
		s.logger.Warn().Str("specialty", res.PrimarySpecialty).Msg("knowledge base specialty has no doctor directory mapping")
	}

	if userID != uuid.Nil {
		c := newCheck(&userID, text, res.Recommendation)
		if err := s.repo.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("record symptom check: %w", err)
		}
		res.CheckID = &c.ID
	}
	return res, nil
}

// History returns the user's latest checks, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]*SymptomCheck, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthenticated
	}
	items, err := s.repo.ListByUser(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*SymptomCheck{}
	}
	return items, nil
}
