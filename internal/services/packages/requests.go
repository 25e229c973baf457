package packages

import (
	"regexp"
	"strings"

	"github.com/BearBump/GLExpress/internal/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

var trackingNumberRe = regexp.MustCompile(`^[A-Z0-9]{4,32}$`)

type CreatePackageRequest struct {
	TrackingNumber   string   `json:"tracking_number"`
	RecipientName    string   `json:"recipient_name"`
	RecipientAddress string   `json:"recipient_address"`
	RecipientPhone   string   `json:"recipient_phone"`
	RecipientEmail   string   `json:"recipient_email"`
	SenderName       string   `json:"sender_name"`
	SenderAddress    string   `json:"sender_address"`
	SenderPhone      string   `json:"sender_phone"`
	Weight           *float64 `json:"weight"`
	Dimensions       string   `json:"dimensions"`
	ServiceType      string   `json:"service_type"`
}

func (r *CreatePackageRequest) normalize() {
	r.TrackingNumber = strings.ToUpper(strings.TrimSpace(r.TrackingNumber))
	r.RecipientName = strings.TrimSpace(r.RecipientName)
	r.RecipientAddress = strings.TrimSpace(r.RecipientAddress)
	r.RecipientEmail = strings.TrimSpace(r.RecipientEmail)
	r.ServiceType = strings.ToLower(strings.TrimSpace(r.ServiceType))
	if r.ServiceType == "" {
		r.ServiceType = models.ServiceStandard
	}
}

func (r CreatePackageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TrackingNumber, validation.Match(trackingNumberRe)),
		validation.Field(&r.RecipientName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.RecipientAddress, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.RecipientEmail, is.EmailFormat),
		validation.Field(&r.Weight, validation.Min(0.0)),
		validation.Field(&r.ServiceType, validation.In(serviceTypes()...)),
	)
}

type UpdateStatusRequest struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
		validation.Field(&r.Location, validation.Length(0, 200)),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

type UpdateStatusConfigRequest struct {
	StatusOrder          *int    `json:"status_order"`
	DisplayName          *string `json:"display_name"`
	Description          *string `json:"description"`
	DaysAfterPrevious    *int    `json:"days_after_previous"`
	HoursAfterPrevious   *int    `json:"hours_after_previous"`
	MinutesAfterPrevious *int    `json:"minutes_after_previous"`
	IsActive             *bool   `json:"is_active"`
}

func (r UpdateStatusConfigRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StatusOrder, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.DisplayName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.DaysAfterPrevious, validation.Min(0)),
		validation.Field(&r.HoursAfterPrevious, validation.Min(0)),
		validation.Field(&r.MinutesAfterPrevious, validation.Min(0)),
	)
}

func (r UpdateStatusConfigRequest) patch() models.StatusConfigPatch {
	return models.StatusConfigPatch{
		StatusOrder:          r.StatusOrder,
		DisplayName:          r.DisplayName,
		Description:          r.Description,
		DaysAfterPrevious:    r.DaysAfterPrevious,
		HoursAfterPrevious:   r.HoursAfterPrevious,
		MinutesAfterPrevious: r.MinutesAfterPrevious,
		IsActive:             r.IsActive,
	}
}

// UpdateProfileRequest: смена email администратора. Пароль меняется у провайдера
// идентификации, сюда он не попадает.
type UpdateProfileRequest struct {
	Email string `json:"email"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat, validation.Length(3, 254)),
	)
}

func serviceTypes() []interface{} {
	out := make([]interface{}, 0, len(models.ServiceTypes))
	for _, s := range models.ServiceTypes {
		out = append(out, s)
	}
	return out
}

func validationErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(models.ErrValidation, err.Error())
}

func validateEmail(email string) error {
	return validationErr(validation.Validate(email, is.EmailFormat))
}
