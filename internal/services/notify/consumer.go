package notify

import (
	"context"

	"github.com/BearBump/GLExpress/internal/broker/messages"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// HandleRegistered обрабатывает сообщение package.registered.
// Ошибка возвращается только когда сообщение стоит перечитать (commit не делается).
func (n *Notifier) HandleRegistered(ctx context.Context, _ []byte, value []byte) error {
	msg, err := messages.DecodePackageRegistered(value)
	if err != nil {
		// битое сообщение не станет лучше при повторе
		n.log.Warn("skip bad package.registered message", "error", err.Error())
		return nil
	}
	if msg.RecipientEmail == "" {
		n.log.Debug("no recipient email, skip notification", "tracking_number", msg.TrackingNumber)
		return nil
	}

	req := SendTrackingEmailRequest{
		PackageID:      msg.PackageID,
		RecipientEmail: msg.RecipientEmail,
		RecipientName:  msg.RecipientName,
		TrackingNumber: msg.TrackingNumber,
	}

	op := func() error {
		_, err := n.SendTrackingEmail(ctx, req)
		if err != nil && (errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrNotFound)) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = n.retryWindow / 20
	bo.MaxElapsedTime = n.retryWindow

	err = backoff.Retry(op, backoff.WithContext(bo, ctx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrNotFound) {
		n.log.Warn("notification dropped", "tracking_number", msg.TrackingNumber, "error", err.Error())
		return nil
	}
	return errors.Wrap(err, "send registration email")
}
