package notify

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/GLExpress/internal/integrations/mailer"
	"github.com/BearBump/GLExpress/internal/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

const (
	DefaultFrom            = "GL Express <notifications@gl-express.eu>"
	DefaultTrackingBaseURL = "http://localhost:8080"
	SupportEmail           = "support@glexpress.com"

	defaultRetryWindow = 30 * time.Second
)

//go:embed templates/tracking_email.html
var templatesFS embed.FS

var trackingTmpl = template.Must(template.ParseFS(templatesFS, "templates/tracking_email.html"))

type PackageGetter interface {
	GetPackageByID(ctx context.Context, id string) (*models.Package, error)
	GetPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Package, error)
}

type Config struct {
	From            string
	TrackingBaseURL string
}

// SendTrackingEmailRequest: packageId необязателен, без него посылку ищем по трек-номеру.
type SendTrackingEmailRequest struct {
	PackageID      string `json:"packageId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName"`
	TrackingNumber string `json:"trackingNumber"`
}

func (r SendTrackingEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RecipientEmail, validation.Required, is.EmailFormat),
		validation.Field(&r.RecipientName, validation.Required),
		validation.Field(&r.TrackingNumber, validation.Required),
	)
}

type SendTrackingEmailResult struct {
	EmailID string `json:"emailId"`
}

type Notifier struct {
	packages PackageGetter
	mail     mailer.Mailer
	cfg      Config
	log      *slog.Logger

	// сколько HandleRegistered повторяет отправку при ошибках провайдера
	retryWindow time.Duration
}

func New(packages PackageGetter, mail mailer.Mailer, cfg Config, log *slog.Logger) *Notifier {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.TrackingBaseURL == "" {
		cfg.TrackingBaseURL = DefaultTrackingBaseURL
	}
	cfg.TrackingBaseURL = strings.TrimRight(cfg.TrackingBaseURL, "/")
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		packages: packages,
		mail:     mail,
		cfg:      cfg,
		log:      log.With("component", "notifier"),

		retryWindow: defaultRetryWindow,
	}
}

// SendTrackingEmail отправляет получателю письмо-подтверждение с трек-номером.
// Ошибки: models.ErrValidation (нет полей или кривой email), models.ErrNotFound (нет посылки),
// остальное считается ошибкой провайдера.
func (n *Notifier) SendTrackingEmail(ctx context.Context, req SendTrackingEmailRequest) (SendTrackingEmailResult, error) {
	req.PackageID = strings.TrimSpace(req.PackageID)
	req.RecipientEmail = strings.TrimSpace(req.RecipientEmail)
	req.RecipientName = strings.TrimSpace(req.RecipientName)
	req.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
	if err := req.Validate(); err != nil {
		return SendTrackingEmailResult{}, errors.Wrap(models.ErrValidation, err.Error())
	}

	p, err := n.resolvePackage(ctx, req)
	if err != nil {
		return SendTrackingEmailResult{}, err
	}

	html, err := n.render(req, p)
	if err != nil {
		return SendTrackingEmailResult{}, err
	}

	id, err := n.mail.Send(ctx, mailer.Message{
		From:    n.cfg.From,
		To:      []string{req.RecipientEmail},
		Subject: Subject(req.TrackingNumber),
		HTML:    html,
	})
	if err != nil {
		n.log.Error("send tracking email", "package_id", p.ID, "tracking_number", req.TrackingNumber, "error", err.Error())
		return SendTrackingEmailResult{}, err
	}
	n.log.Info("tracking email sent", "package_id", p.ID, "tracking_number", req.TrackingNumber, "email_id", id)
	return SendTrackingEmailResult{EmailID: id}, nil
}

func (n *Notifier) resolvePackage(ctx context.Context, req SendTrackingEmailRequest) (*models.Package, error) {
	if req.PackageID != "" {
		return n.packages.GetPackageByID(ctx, req.PackageID)
	}
	return n.packages.GetPackageByTrackingNumber(ctx, strings.ToUpper(req.TrackingNumber))
}

func Subject(trackingNumber string) string {
	return "📦 Your GL Express package " + trackingNumber + " is on its way!"
}

func (n *Notifier) TrackingURL(trackingNumber string) string {
	return n.cfg.TrackingBaseURL + "/track?number=" + url.QueryEscape(trackingNumber)
}

type emailData struct {
	RecipientName    string
	TrackingNumber   string
	TrackingURL      string
	PackageRecipient string
	DeliveryAddress  string
	ServiceType      string
	Status           string
	SupportEmail     string
}

func (n *Notifier) render(req SendTrackingEmailRequest, p *models.Package) (string, error) {
	var buf bytes.Buffer
	err := trackingTmpl.Execute(&buf, emailData{
		RecipientName:    req.RecipientName,
		TrackingNumber:   req.TrackingNumber,
		TrackingURL:      n.TrackingURL(req.TrackingNumber),
		PackageRecipient: p.RecipientName,
		DeliveryAddress:  p.RecipientAddress,
		ServiceType:      p.ServiceType,
		Status:           statusTitle(p.CurrentStatus),
		SupportEmail:     SupportEmail,
	})
	if err != nil {
		return "", errors.Wrap(err, "render tracking email")
	}
	return buf.String(), nil
}

// statusTitle: "out_for_delivery" -> "Out for delivery".
func statusTitle(s models.PackageStatus) string {
	if s == "" {
		s = models.StatusRegistered
	}
	words := strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
	return strings.ToUpper(words[:1]) + words[1:]
}
