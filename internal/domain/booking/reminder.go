package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/platform/notification"
)

// DefaultReminderSchedule runs the reminder job at 08:00 clinic time.
const DefaultReminderSchedule = "0 8 * * *"

// UserDirectory resolves patient contact details.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*directory.User, error)
}

// Sender is satisfied by *notification.Manager.
type Sender interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
	Retry(ctx context.Context, id string) error
	Stats() map[string]int
}

// ReminderJob emails every patient holding a confirmed appointment for the
// next day.
type ReminderJob struct {
	repo    Repository
	users   UserDirectory
	doctors DoctorDirectory
	sender  Sender
	clock   Clock
	logger  zerolog.Logger
}

func NewReminderJob(repo Repository, users UserDirectory, doctors DoctorDirectory, sender Sender, clock Clock, logger zerolog.Logger) *ReminderJob {
	return &ReminderJob{
		repo:    repo,
		users:   users,
		doctors: doctors,
		sender:  sender,
		clock:   clock,
		logger:  logger.With().Str("job", "appointment_reminders").Logger(),
	}
}

// ReminderResult summarises one run.
type ReminderResult struct {
	Date    time.Time
	Sent    int
	Failed  int
	Skipped int
}

// Run sends reminders for tomorrow's confirmed appointments. Delivery
// failures are logged and counted, not returned.
func (j *ReminderJob) Run(ctx context.Context) (ReminderResult, error) {
	tomorrow := j.clock.Today().AddDate(0, 0, 1)
	res := ReminderResult{Date: tomorrow}

	appts, err := j.repo.ListByStatusOn(ctx, tomorrow, StatusConfirmed)
	if err != nil {
		return res, fmt.Errorf("list confirmed appointments: %w", err)
	}
	for _, a := range appts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sent, err := j.remind(ctx, a)
		switch {
		case err != nil:
			res.Failed++
			j.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("reminder failed")
		case !sent:
			res.Skipped++
		default:
			res.Sent++
		}
	}
	j.logger.Info().
		Str("date", tomorrow.Format(DateLayout)).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Interface("deliveries", j.sender.Stats()).
		Msg("reminders processed")
	return res, nil
}

func (j *ReminderJob) remind(ctx context.Context, a *Appointment) (bool, error) {
	patient, err := j.users.GetUser(ctx, a.PatientID)
	if err != nil {
		return false, fmt.Errorf("load patient: %w", err)
	}
	if patient.Email == "" {
		j.logger.Warn().Str("appointment_id", a.ID.String()).Msg("patient has no email, skipping reminder")
		return false, nil
	}
	doctor, err := j.doctors.GetDoctor(ctx, a.DoctorID)
	if err != nil {
		return false, fmt.Errorf("load doctor: %w", err)
	}

	data := map[string]string{
		"patient_name": patient.FullName(),
		"doctor":       "Dr. " + doctor.Name,
		"specialty":    doctor.Specialty.Display(),
		"date":         a.Date.Format("Monday, 02 January 2006"),
		"time":         a.TimeSlot.Display(),
		"reason":       a.Reason,
	}
	n, err := j.sender.SendFromTemplate(ctx, notification.TemplateAppointmentReminder, data, patient.Email)
	if err != nil && n != nil {
		// one immediate retry for transient relay errors
		if retryErr := j.sender.Retry(ctx, n.ID); retryErr == nil {
			return true, nil
		}
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Schedule registers the job on c. Each run gets its own timeout.
func (j *ReminderJob) Schedule(c *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultReminderSchedule
	}
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error().Err(err).Msg("reminder run failed")
		}
	})
}
