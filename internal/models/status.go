package models

import (
	"strings"

	"github.com/pkg/errors"
)

// PackageStatus is the lifecycle tag shared by packages and their status history.
type PackageStatus string

const (
	StatusRegistered              PackageStatus = "registered"
	StatusReadyForPickup          PackageStatus = "ready_for_pickup"
	StatusInTransit               PackageStatus = "in_transit"
	StatusArrivedAtDepot          PackageStatus = "arrived_at_depot"
	StatusReachedSortingFacility  PackageStatus = "reached_sorting_facility"
	StatusDepartedSortingFacility PackageStatus = "departed_sorting_facility"
	StatusOnHold                  PackageStatus = "on_hold"
	StatusRedeliveryAttempt       PackageStatus = "redelivery_attempt"
	StatusOutForDelivery          PackageStatus = "out_for_delivery"
	StatusDelivered               PackageStatus = "delivered"
	StatusFailedDelivery          PackageStatus = "failed_delivery"
	StatusReturned                PackageStatus = "returned"
)

// AllStatuses lists every known tag in lifecycle order.
var AllStatuses = []PackageStatus{
	StatusRegistered,
	StatusReadyForPickup,
	StatusInTransit,
	StatusArrivedAtDepot,
	StatusReachedSortingFacility,
	StatusDepartedSortingFacility,
	StatusOnHold,
	StatusRedeliveryAttempt,
	StatusOutForDelivery,
	StatusDelivered,
	StatusFailedDelivery,
	StatusReturned,
}

// TerminalStatuses never progress automatically.
var TerminalStatuses = []PackageStatus{
	StatusDelivered,
	StatusFailedDelivery,
	StatusReturned,
}

func (s PackageStatus) String() string { return string(s) }

func (s PackageStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s PackageStatus) Terminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Label is the display form of the tag, e.g. "OUT FOR DELIVERY".
func (s PackageStatus) Label() string {
	return FormatLabel(string(s))
}

// ParseStatus accepts a tag in any case with "_", "-" or space separators.
func ParseStatus(raw string) (PackageStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	s := PackageStatus(norm)
	if !s.Valid() {
		return "", errors.Wrapf(ErrValidation, "unknown package status %q", raw)
	}
	return s, nil
}

// FormatLabel derives a UI label from a tag: separators become spaces, letters upper-case.
func FormatLabel(tag string) string {
	return strings.ToUpper(strings.ReplaceAll(tag, "_", " "))
}
