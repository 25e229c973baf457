package models

import "time"

const (
	ServiceStandard  = "standard"
	ServiceExpress   = "express"
	ServiceOvernight = "overnight"
)

var ServiceTypes = []string{ServiceStandard, ServiceExpress, ServiceOvernight}

type Package struct {
	ID               string        `json:"id"`
	TrackingNumber   string        `json:"tracking_number"`
	RecipientName    string        `json:"recipient_name"`
	RecipientAddress string        `json:"recipient_address"`
	RecipientPhone   *string       `json:"recipient_phone,omitempty"`
	RecipientEmail   *string       `json:"recipient_email,omitempty"`
	SenderName       *string       `json:"sender_name,omitempty"`
	SenderAddress    *string       `json:"sender_address,omitempty"`
	SenderPhone      *string       `json:"sender_phone,omitempty"`
	Weight           *float64      `json:"weight,omitempty"`
	Dimensions       *string       `json:"dimensions,omitempty"`
	ServiceType      string        `json:"service_type"`
	ExternalOrderID  *string       `json:"external_order_id,omitempty"`
	CurrentStatus    PackageStatus `json:"current_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type StatusHistoryEntry struct {
	ID        uint64        `json:"id"`
	PackageID string        `json:"package_id"`
	Status    PackageStatus `json:"status"`
	Location  *string       `json:"location,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// PackageCreateInput carries the writable fields of a new package. ID,
// CurrentStatus and timestamps are assigned by the store caller.
type PackageCreateInput struct {
	ID               string
	TrackingNumber   string
	RecipientName    string
	RecipientAddress string
	RecipientPhone   *string
	RecipientEmail   *string
	SenderName       *string
	SenderAddress    *string
	SenderPhone      *string
	Weight           *float64
	Dimensions       *string
	ServiceType      string
	ExternalOrderID  *string
	CurrentStatus    PackageStatus
	CreatedAt        time.Time
}

// TrackingView is what the public lookup returns: the package and its timeline.
type TrackingView struct {
	Package *Package              `json:"package"`
	History []*StatusHistoryEntry `json:"history"`
}

func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StatusChange moves a package to To and appends the matching history entry.
// A non-empty From makes the change conditional: it only applies while the
// package is still in From and has no history entry newer than EnteredAt.
type StatusChange struct {
	PackageID string
	From      PackageStatus
	EnteredAt time.Time
	To        PackageStatus
	At        time.Time
	Location  *string
	Notes     *string
}

func (c StatusChange) Conditional() bool {
	return c.From != ""
}

// HistoryResolution: шаг timestamptz в Postgres.
const HistoryResolution = time.Microsecond

// HistoryTime возвращает момент для новой записи истории: at, но строго позже
// последней существующей записи. Так current_status всегда совпадает со статусом
// самой поздней записи, даже если часы процессов расходятся.
func HistoryTime(at time.Time, latest *time.Time) time.Time {
	at = at.UTC()
	if latest != nil && !at.After(*latest) {
		return latest.UTC().Add(HistoryResolution)
	}
	return at
}
