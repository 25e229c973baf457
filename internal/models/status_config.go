package models

import "time"

type StatusConfig struct {
	Status               PackageStatus `json:"status"`
	StatusOrder          int           `json:"status_order"`
	DisplayName          string        `json:"display_name"`
	Description          *string       `json:"description,omitempty"`
	DaysAfterPrevious    int           `json:"days_after_previous"`
	HoursAfterPrevious   int           `json:"hours_after_previous"`
	MinutesAfterPrevious int           `json:"minutes_after_previous"`
	IsActive             bool          `json:"is_active"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// Dwell is how long a package stays in the previous status before this one is due.
func (c *StatusConfig) Dwell() time.Duration {
	return time.Duration(c.DaysAfterPrevious)*24*time.Hour +
		time.Duration(c.HoursAfterPrevious)*time.Hour +
		time.Duration(c.MinutesAfterPrevious)*time.Minute
}

// StatusConfigPatch is a partial update; nil fields are left untouched.
type StatusConfigPatch struct {
	StatusOrder          *int
	DisplayName          *string
	Description          *string
	DaysAfterPrevious    *int
	HoursAfterPrevious   *int
	MinutesAfterPrevious *int
	IsActive             *bool
}

// ProgressionCandidate is a non-terminal package with the time it entered its status.
type ProgressionCandidate struct {
	PackageID      string
	TrackingNumber string
	CurrentStatus  PackageStatus
	EnteredAt      time.Time
}

// DefaultStatusConfigs is the seed applied at system initialization.
func DefaultStatusConfigs() []StatusConfig {
	return []StatusConfig{
		{Status: StatusRegistered, StatusOrder: 1, DisplayName: "Registered", Description: StrPtr("Package registered in the system"), IsActive: true},
		{Status: StatusReadyForPickup, StatusOrder: 2, DisplayName: "Ready for Pickup", Description: StrPtr("Package is ready to be picked up by courier"), HoursAfterPrevious: 2, IsActive: true},
		{Status: StatusInTransit, StatusOrder: 3, DisplayName: "In Transit", Description: StrPtr("Package is on its way"), DaysAfterPrevious: 1, IsActive: true},
		{Status: StatusOutForDelivery, StatusOrder: 4, DisplayName: "Out for Delivery", Description: StrPtr("Package is out for delivery"), DaysAfterPrevious: 1, IsActive: true},
		{Status: StatusDelivered, StatusOrder: 5, DisplayName: "Delivered", Description: StrPtr("Package has been delivered"), HoursAfterPrevious: 4, IsActive: true},
		{Status: StatusFailedDelivery, StatusOrder: 6, DisplayName: "Failed Delivery", Description: StrPtr("Delivery attempt failed")},
		{Status: StatusReturned, StatusOrder: 7, DisplayName: "Returned", Description: StrPtr("Package returned to sender")},
		{Status: StatusArrivedAtDepot, StatusOrder: 8, DisplayName: "Arrived at Depot"},
		{Status: StatusReachedSortingFacility, StatusOrder: 9, DisplayName: "Reached Sorting Facility"},
		{Status: StatusDepartedSortingFacility, StatusOrder: 10, DisplayName: "Departed Sorting Facility"},
		{Status: StatusOnHold, StatusOrder: 11, DisplayName: "On Hold"},
		{Status: StatusRedeliveryAttempt, StatusOrder: 12, DisplayName: "Redelivery Attempt"},
	}
}
