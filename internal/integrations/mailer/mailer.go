package mailer

import "context"

type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer отправляет письмо и возвращает id сообщения у провайдера.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}
