package models

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFormatLabel(t *testing.T) {
	require.Equal(t, "OUT FOR DELIVERY", FormatLabel("out_for_delivery"))
	require.Equal(t, "REGISTERED", FormatLabel("registered"))
	require.Equal(t, "", FormatLabel(""))

	for _, s := range AllStatuses {
		require.NotContains(t, s.Label(), "_", s)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" In-Transit ")
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, s)

	s, err = ParseStatus("OUT FOR DELIVERY")
	require.NoError(t, err)
	require.Equal(t, StatusOutForDelivery, s)

	_, err = ParseStatus("teleported")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation))
}

func TestPackageStatus_Terminal(t *testing.T) {
	require.True(t, StatusDelivered.Terminal())
	require.True(t, StatusFailedDelivery.Terminal())
	require.True(t, StatusReturned.Terminal())
	require.False(t, StatusInTransit.Terminal())
	require.False(t, StatusOnHold.Terminal())
}

func TestStatusConfig_Dwell(t *testing.T) {
	c := &StatusConfig{DaysAfterPrevious: 1, HoursAfterPrevious: 2, MinutesAfterPrevious: 30}
	require.Equal(t, 26*time.Hour+30*time.Minute, c.Dwell())
	require.Equal(t, time.Duration(0), (&StatusConfig{}).Dwell())
}

func TestDefaultStatusConfigs_UniqueOrders(t *testing.T) {
	seenOrder := map[int]bool{}
	seenStatus := map[PackageStatus]bool{}
	for _, c := range DefaultStatusConfigs() {
		require.True(t, c.Status.Valid(), c.Status)
		require.False(t, seenOrder[c.StatusOrder], "duplicate order %d", c.StatusOrder)
		require.False(t, seenStatus[c.Status], "duplicate status %s", c.Status)
		seenOrder[c.StatusOrder] = true
		seenStatus[c.Status] = true
	}
	require.Len(t, seenStatus, len(AllStatuses))
}

func TestHistoryTime(t *testing.T) {
	latest := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, latest.Add(time.Second), HistoryTime(latest.Add(time.Second), &latest))
	require.Equal(t, latest.Add(time.Microsecond), HistoryTime(latest, &latest))
	require.Equal(t, latest.Add(time.Microsecond), HistoryTime(latest.Add(-5*time.Millisecond), &latest))

	at := time.Date(2026, 1, 1, 15, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	require.Equal(t, time.UTC, HistoryTime(at, nil).Location())
	require.True(t, HistoryTime(at, nil).Equal(at))
}
