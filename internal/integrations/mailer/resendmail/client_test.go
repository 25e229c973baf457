package resendmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BearBump/GLExpress/internal/integrations/mailer"
	"github.com/stretchr/testify/require"
)

func TestClient_Send_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "GL Express <notifications@gl-express.eu>", body["from"])
		require.Equal(t, []any{"ada@example.com"}, body["to"])
		require.Equal(t, "hi", body["subject"])
		require.Equal(t, "<p>hi</p>", body["html"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	c, err := New("re_test", srv.URL)
	require.NoError(t, err)

	id, err := c.Send(context.Background(), mailer.Message{
		From:    "GL Express <notifications@gl-express.eu>",
		To:      []string{"ada@example.com"},
		Subject: "hi",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	require.Equal(t, "email_123", id)
}

func TestClient_Send_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	}))
	defer srv.Close()

	c, err := New("re_test", srv.URL)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), mailer.Message{From: "x", To: []string{"a@b.c"}, Subject: "s", HTML: "h"})
	require.Error(t, err)
}

func TestClient_Send_NoRecipients(t *testing.T) {
	c, err := New("re_test", "")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), mailer.Message{})
	require.Error(t, err)
}
