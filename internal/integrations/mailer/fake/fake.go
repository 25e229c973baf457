package fake

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BearBump/GLExpress/internal/integrations/mailer"
	"github.com/google/uuid"
)

// Mailer: заглушка без API-ключа: письмо только пишется в лог и запоминается.
type Mailer struct {
	log *slog.Logger

	mu   sync.Mutex
	sent []mailer.Message
}

func New(log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{log: log.With("component", "fake_mailer")}
}

func (m *Mailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	id := "fake-" + uuid.NewString()

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.log.Info("email not sent (no provider configured)", "email_id", id, "to", msg.To, "subject", msg.Subject)
	return id, nil
}

// Sent возвращает копию отправленных писем.
func (m *Mailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
