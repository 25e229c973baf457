package fake

import (
	"context"
	"testing"

	"github.com/BearBump/GLExpress/internal/integrations/mailer"
	"github.com/stretchr/testify/require"
)

func TestMailer_Send(t *testing.T) {
	m := New(nil)
	id, err := m.Send(context.Background(), mailer.Message{To: []string{"a@example.com"}, Subject: "s"})
	require.NoError(t, err)
	require.Contains(t, id, "fake-")

	id2, err := m.Send(context.Background(), mailer.Message{To: []string{"b@example.com"}})
	require.NoError(t, err)
	require.NotEqual(t, id, id2)

	sent := m.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "s", sent[0].Subject)
}
