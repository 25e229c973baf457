package resendmail

import (
	"context"
	"net/url"
	"strings"

	"github.com/BearBump/GLExpress/internal/integrations/mailer"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
)

type Client struct {
	rc *resend.Client
}

// New создаёт клиента Resend. baseURL нужен для тестов (httptest), пустой = api.resend.com.
func New(apiKey, baseURL string) (*Client, error) {
	rc := resend.NewClient(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse resend base url")
		}
		rc.BaseURL = u
	}
	return &Client{rc: rc}, nil
}

func (c *Client) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if len(msg.To) == 0 {
		return "", errors.New("no recipients")
	}
	sent, err := c.rc.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", errors.Wrap(err, "resend send email")
	}
	return sent.Id, nil
}
