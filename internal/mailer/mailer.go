package mailer

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Mailer delivers outbound notifications.
type Mailer interface {
	Send(to, subject, body string) error
}

// DebugMailer appends messages to a local log file instead of talking to an
// SMTP relay. Used in development and tests.
type DebugMailer struct {
	Path   string
	Logger *slog.Logger

	mu sync.Mutex
}

func NewDebugMailer(path string, logger *slog.Logger) *DebugMailer {
	if path == "" {
		path = "email.log"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugMailer{Path: path, Logger: logger}
}

func (m *DebugMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := os.OpenFile(m.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open mail log: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "--- BEGIN EMAIL %s ---\nSubject: %s\n%s\n--- END EMAIL ---\n", to, subject, body)
	if err != nil {
		return fmt.Errorf("failed to write mail log: %w", err)
	}

	m.Logger.Info("email dispatched", "to", to, "subject", subject)
	return nil
}
