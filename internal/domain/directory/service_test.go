package directory

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smarthealth/clinic/internal/platform/apperr"
)

// -- Mock Repositories --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*DoctorProfile
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*DoctorProfile)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *DoctorProfile) error {
	for _, existing := range m.doctors {
		if existing.LicenseNumber == d.LicenseNumber {
			return ErrDuplicateLicense
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*DoctorProfile, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

func (m *mockDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	for _, d := range m.doctors {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDoctorRepo) Update(_ context.Context, d *DoctorProfile) error {
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) ListAvailable(_ context.Context, specialty Specialty, limit, offset int) ([]*DoctorProfile, int, error) {
	var result []*DoctorProfile
	for _, d := range m.doctors {
		if d.IsAvailable && (specialty == "" || d.Specialty == specialty) {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LicenseNumber < result[j].LicenseNumber })
	total := len(result)
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, total, nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*PatientProfile
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*PatientProfile)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*PatientProfile, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func newTestService() *Service {
	return NewService(newMockUserRepo(), newMockDoctorRepo(), newMockPatientRepo(), nil)
}

func registerDoctor(t *testing.T, s *Service, license string, sp Specialty) *DoctorProfile {
	t.Helper()
	_, d, err := s.RegisterDoctor(context.Background(), DoctorRegistration{
		Username:      "dr-" + license,
		Email:         license + "@clinic.test",
		FirstName:     "Asha",
		LastName:      "Rao",
		Specialty:     string(sp),
		LicenseNumber: license,
	})
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	return d
}

// -- Registration --

func TestService_RegisterPatient(t *testing.T) {
	s := newTestService()
	u, p, err := s.RegisterPatient(context.Background(), PatientRegistration{
		Username:   "meera",
		Email:      "meera@example.com",
		BloodGroup: "O+",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != RolePatient {
		t.Errorf("expected patient role, got %q", u.Role)
	}
	if p.UserID != u.ID {
		t.Error("expected profile to reference the new user")
	}
}

func TestService_RegisterPatient_Validation(t *testing.T) {
	s := newTestService()
	tests := []struct {
		name  string
		reg   PatientRegistration
		field string
	}{
		{"blank username", PatientRegistration{Username: "  ", Email: "a@b.co"}, "username"},
		{"bad email", PatientRegistration{Username: "a", Email: "nope"}, "email"},
		{"bad blood group", PatientRegistration{Username: "a", Email: "a@b.co", BloodGroup: "C+"}, "blood_group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.RegisterPatient(context.Background(), tt.reg)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestService_RegisterPatient_DuplicateUsername(t *testing.T) {
	s := newTestService()
	reg := PatientRegistration{Username: "meera", Email: "meera@example.com"}
	if _, _, err := s.RegisterPatient(context.Background(), reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := s.RegisterPatient(context.Background(), reg)
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestService_RegisterDoctor_DefaultFee(t *testing.T) {
	s := newTestService()
	d := registerDoctor(t, s, "LIC-1", Cardiologist)
	if !d.ConsultationFee.Equal(DefaultConsultationFee) {
		t.Errorf("expected default fee %s, got %s", DefaultConsultationFee, d.ConsultationFee)
	}
	if !d.IsAvailable {
		t.Error("expected new doctors to be available")
	}
	if d.Name != "Asha Rao" {
		t.Errorf("expected joined name, got %q", d.Name)
	}
}

func TestService_RegisterDoctor_Fee(t *testing.T) {
	s := newTestService()
	_, d, err := s.RegisterDoctor(context.Background(), DoctorRegistration{
		Username: "dr", Email: "dr@clinic.test", Specialty: "ent",
		LicenseNumber: "LIC-2", ConsultationFee: "750.456",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.ConsultationFee.Equal(decimal.RequireFromString("750.46")) {
		t.Errorf("expected fee rounded to cents, got %s", d.ConsultationFee)
	}

	_, _, err = s.RegisterDoctor(context.Background(), DoctorRegistration{
		Username: "dr2", Email: "dr2@clinic.test", Specialty: "ent",
		LicenseNumber: "LIC-3", ConsultationFee: "-1",
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for negative fee, got %v", err)
	}
}

func TestService_RegisterDoctor_UnknownSpecialty(t *testing.T) {
	s := newTestService()
	_, _, err := s.RegisterDoctor(context.Background(), DoctorRegistration{
		Username: "dr", Email: "dr@clinic.test", Specialty: "astrology", LicenseNumber: "X",
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_RegisterDoctor_DuplicateLicense(t *testing.T) {
	s := newTestService()
	registerDoctor(t, s, "LIC-1", Cardiologist)
	_, _, err := s.RegisterDoctor(context.Background(), DoctorRegistration{
		Username: "other", Email: "o@clinic.test", Specialty: "ent", LicenseNumber: "LIC-1",
	})
	if !errors.Is(err, ErrDuplicateLicense) {
		t.Errorf("expected ErrDuplicateLicense, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("expected conflict kind, got %v", apperr.KindOf(err))
	}
}

// -- Listing --

func TestService_ListDoctors(t *testing.T) {
	s := newTestService()
	registerDoctor(t, s, "A", Cardiologist)
	registerDoctor(t, s, "B", Cardiologist)
	off := registerDoctor(t, s, "C", Cardiologist)
	registerDoctor(t, s, "D", Dermatologist)
	off.IsAvailable = false

	items, total, err := s.ListDoctors(context.Background(), "cardiologist", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 available cardiologists, got %d (total %d)", len(items), total)
	}

	_, total, _ = s.ListDoctors(context.Background(), "", 20, 0)
	if total != 3 {
		t.Errorf("expected 3 available doctors, got %d", total)
	}

	if _, _, err := s.ListDoctors(context.Background(), "astrology", 20, 0); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown specialty, got %v", err)
	}
}

func TestService_AvailableBySpecialty_Limit(t *testing.T) {
	s := newTestService()
	for _, lic := range []string{"1", "2", "3", "4", "5"} {
		registerDoctor(t, s, lic, GeneralPhysician)
	}
	items, err := s.AvailableBySpecialty(context.Background(), GeneralPhysician, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("expected 4 doctors, got %d", len(items))
	}
}

func TestService_SetAvailability(t *testing.T) {
	s := newTestService()
	d := registerDoctor(t, s, "A", ENT)
	actor := Actor{UserID: d.UserID, Role: RoleDoctor, DoctorID: d.ID}

	got, err := s.SetAvailability(context.Background(), actor, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsAvailable {
		t.Error("expected doctor to be unavailable")
	}

	patient := Actor{UserID: uuid.New(), Role: RolePatient}
	if _, err := s.SetAvailability(context.Background(), patient, true); !errors.Is(err, apperr.ErrPermission) {
		t.Errorf("expected ErrPermission for patient, got %v", err)
	}
}

// -- Actor resolution --

func TestService_ResolveActor(t *testing.T) {
	s := newTestService()
	d := registerDoctor(t, s, "A", ENT)
	ctx := context.Background()

	actor, err := s.ResolveActor(ctx, d.UserID.String(), []string{"doctor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !actor.IsDoctor() || actor.DoctorID != d.ID {
		t.Errorf("expected doctor actor for %s, got %+v", d.ID, actor)
	}

	u, _, err := s.RegisterPatient(ctx, PatientRegistration{Username: "meera", Email: "meera@example.com"})
	if err != nil {
		t.Fatalf("register patient: %v", err)
	}
	actor, err = s.ResolveActor(ctx, u.ID.String(), []string{"admin", "patient"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !actor.IsPatient() || actor.UserID != u.ID {
		t.Errorf("expected patient actor, got %+v", actor)
	}
}

func TestService_ResolveActor_Failures(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	tests := []struct {
		name   string
		userID string
		roles  []string
		want   error
	}{
		{"anonymous", "", nil, apperr.ErrUnauthenticated},
		{"malformed subject", "bob", []string{"patient"}, apperr.ErrUnauthenticated},
		{"no known role", uuid.New().String(), []string{"admin"}, apperr.ErrPermission},
		{"doctor without profile", uuid.New().String(), []string{"doctor"}, apperr.ErrPermission},
		{"patient without account", uuid.New().String(), []string{"patient"}, apperr.ErrPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ResolveActor(ctx, tt.userID, tt.roles)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_TransactorWrapsRegistration(t *testing.T) {
	calls := 0
	inTx := func(ctx context.Context, fn func(context.Context) error) error {
		calls++
		return fn(ctx)
	}
	s := NewService(newMockUserRepo(), newMockDoctorRepo(), newMockPatientRepo(), inTx)
	if _, _, err := s.RegisterPatient(context.Background(), PatientRegistration{Username: "x", Email: "x@y.co"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected registration to run in one transaction, got %d", calls)
	}
}
