package messages

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// PackageRegistered публикуется адаптером приёма заказов после создания посылки.
// Ключ сообщения: tracking_number.
type PackageRegistered struct {
	PackageID       string    `json:"package_id"`
	TrackingNumber  string    `json:"tracking_number"`
	RecipientName   string    `json:"recipient_name"`
	RecipientEmail  string    `json:"recipient_email,omitempty"`
	ExternalOrderID string    `json:"external_order_id,omitempty"`
	Source          string    `json:"source"`
	RegisteredAt    time.Time `json:"registered_at"`
}

func (m PackageRegistered) Key() []byte {
	return []byte(m.TrackingNumber)
}

func (m PackageRegistered) Encode() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "marshal package.registered")
	}
	return b, nil
}

func DecodePackageRegistered(b []byte) (PackageRegistered, error) {
	var m PackageRegistered
	if err := json.Unmarshal(b, &m); err != nil {
		return PackageRegistered{}, errors.Wrap(err, "unmarshal package.registered")
	}
	if m.PackageID == "" || m.TrackingNumber == "" {
		return PackageRegistered{}, errors.New("package.registered: package_id and tracking_number are required")
	}
	return m, nil
}
