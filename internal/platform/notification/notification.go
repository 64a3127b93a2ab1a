// Package notification renders templated messages and delivers them by
// email, keeping an in-memory record of recent deliveries.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification represents a single outbound email.
type Notification struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	Attempts     int               `json:"attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

const TemplateAppointmentReminder = "appointment-reminder"

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.RegisterTemplate(Template{
		ID:      TemplateAppointmentReminder,
		Name:    "Appointment Reminder",
		Subject: "Reminder: your appointment with {{doctor}} on {{date}}",
		Body: "<p>Dear {{patient_name}},</p>" +
			"<p>This is a reminder of your {{specialty}} appointment with {{doctor}} on {{date}} at {{time}}.</p>" +
			"<p>Reason for visit: {{reason}}</p>" +
			"<p>If you cannot attend, please cancel from your appointments page so the slot can be offered to another patient.</p>",
	})
	return e
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Mock Sender (test double)
// ---------------------------------------------------------------------------

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

// DefaultHistorySize bounds the number of deliveries a Manager remembers.
const DefaultHistorySize = 500

// Manager sends notifications and remembers the most recent ones so that
// failures can be retried.
type Manager struct {
	email     EmailSender
	templates *TemplateEngine

	mu      sync.RWMutex
	history map[string]*Notification
	order   []string
	limit   int
}

func NewManager(email EmailSender, tpl *TemplateEngine) *Manager {
	return &Manager{
		email:     email,
		templates: tpl,
		history:   make(map[string]*Notification),
		limit:     DefaultHistorySize,
	}
}

// Send delivers n, assigns an ID and timestamps, and records the result.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	sendErr := m.deliver(ctx, n)

	m.mu.Lock()
	m.remember(n)
	m.mu.Unlock()
	return sendErr
}

func (m *Manager) deliver(ctx context.Context, n *Notification) error {
	n.Attempts++
	err := m.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		return err
	}
	n.Status = StatusSent
	n.Error = ""
	sentAt := time.Now().UTC()
	n.SentAt = &sentAt
	return nil
}

func (m *Manager) remember(n *Notification) {
	if _, ok := m.history[n.ID]; !ok {
		m.order = append(m.order, n.ID)
	}
	m.history[n.ID] = n
	for len(m.order) > m.limit {
		delete(m.history, m.order[0])
		m.order = m.order[1:]
	}
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Retry re-sends a failed notification. Returns an error if the notification is
// not in "failed" status.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.history[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != StatusFailed {
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, n.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliver(ctx, n)
}

// Stats returns counts of remembered notifications grouped by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range m.history {
		stats[n.Status]++
	}
	return stats
}
