package memstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func seedPackage(t *testing.T, s *Store, id, tn string, at time.Time) *models.Package {
	t.Helper()
	p, err := s.CreatePackage(context.Background(), models.PackageCreateInput{
		ID:               id,
		TrackingNumber:   tn,
		RecipientName:    "Ada Lovelace",
		RecipientAddress: "1 Main St",
		CurrentStatus:    models.StatusRegistered,
		CreatedAt:        at,
	}, &models.StatusHistoryEntry{Status: models.StatusRegistered, CreatedAt: at})
	require.NoError(t, err)
	return p
}

func TestStore_PackagesCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	p1 := seedPackage(t, s, "p1", "GL1", base)
	seedPackage(t, s, "p2", "GL2", base.Add(time.Hour))
	require.Equal(t, models.ServiceStandard, p1.ServiceType)

	_, err := s.CreatePackage(ctx, models.PackageCreateInput{ID: "p3", TrackingNumber: "GL1"}, nil)
	require.True(t, errors.Is(err, models.ErrConflict))

	list, err := s.ListPackages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "p2", list[0].ID)

	// наружу отдаём копии
	list[0].RecipientName = "changed"
	got, err := s.GetPackageByID(ctx, "p2")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.RecipientName)

	_, err = s.GetPackageByTrackingNumber(ctx, "GL404")
	require.True(t, errors.Is(err, models.ErrNotFound))

	n, err := s.DeletePackages(ctx, []string{"p1", "nope"})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	hist, err := s.ListStatusHistory(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestStore_ConditionalChangeHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	entered := time.Now().Add(-3 * time.Hour).UTC()
	seedPackage(t, s, "p1", "GL1", entered)

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyStatusChange(ctx, models.StatusChange{
				PackageID: "p1",
				From:      models.StatusRegistered,
				EnteredAt: entered,
				To:        models.StatusReadyForPickup,
				At:        time.Now(),
			})
			if err == nil {
				wins.Add(1)
				return
			}
			if errors.Is(err, models.ErrConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, 15, conflicts.Load())
	hist, err := s.ListStatusHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, models.StatusReadyForPickup, hist[1].Status)
}

func TestStore_ProgressionCandidates(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	seedPackage(t, s, "p1", "GL1", base)
	seedPackage(t, s, "p2", "GL2", base)
	_, err := s.ApplyStatusChange(ctx, models.StatusChange{PackageID: "p2", To: models.StatusDelivered, At: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = s.ApplyStatusChange(ctx, models.StatusChange{PackageID: "p1", To: models.StatusInTransit, At: base.Add(2 * time.Hour)})
	require.NoError(t, err)

	c, err := s.ListProgressionCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, c, 1)
	require.Equal(t, "p1", c[0].PackageID)
	require.Equal(t, base.Add(2*time.Hour), c[0].EnteredAt)
}

func TestStore_StatusConfigs(t *testing.T) {
	ctx := context.Background()
	s := New()

	cfgs, err := s.ListStatusConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, cfgs, len(models.DefaultStatusConfigs()))
	for i := 1; i < len(cfgs); i++ {
		require.Less(t, cfgs[i-1].StatusOrder, cfgs[i].StatusOrder)
	}

	n, err := s.SeedStatusConfigs(ctx, models.DefaultStatusConfigs())
	require.NoError(t, err)
	require.Zero(t, n)

	hours := 6
	name := "Picked up"
	c, err := s.UpdateStatusConfig(ctx, models.StatusReadyForPickup, models.StatusConfigPatch{
		HoursAfterPrevious: &hours,
		DisplayName:        &name,
	}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 6*time.Hour, c.Dwell())
	require.Equal(t, "Picked up", c.DisplayName)

	order := 3
	_, err = s.UpdateStatusConfig(ctx, models.StatusReadyForPickup, models.StatusConfigPatch{StatusOrder: &order}, time.Now())
	require.True(t, errors.Is(err, models.ErrConflict))
}

func TestStore_LateManualChangeStaysNewest(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	seedPackage(t, s, "p1", "GL1", created)

	// шаг движка со временем начала прогона T0
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	_, err := s.ApplyStatusChange(ctx, models.StatusChange{
		PackageID: "p1", From: models.StatusRegistered, EnteredAt: created,
		To: models.StatusInTransit, At: t0,
	})
	require.NoError(t, err)

	// ручная смена с часами API, отстающими на 5ms, коммитится позже
	p, err := s.ApplyStatusChange(ctx, models.StatusChange{
		PackageID: "p1", To: models.StatusOnHold, At: t0.Add(-5 * time.Millisecond),
		Notes: models.StrPtr("Status updated manually by admin"),
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusOnHold, p.CurrentStatus)

	hist, err := s.ListStatusHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	last := hist[len(hist)-1]
	require.Equal(t, p.CurrentStatus, last.Status)
	require.True(t, last.CreatedAt.After(t0))

	cands, err := s.ListProgressionCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, models.StatusOnHold, cands[0].CurrentStatus)
	require.True(t, cands[0].EnteredAt.Equal(last.CreatedAt))
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetProfile(ctx, "admin")
	require.True(t, errors.Is(err, models.ErrNotFound))

	t1 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	p, err := s.UpsertProfileEmail(ctx, "admin", "a@gl-express.eu", t1)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, p.Role)
	require.True(t, p.CreatedAt.Equal(t1))

	t2 := t1.Add(time.Hour)
	p, err = s.UpsertProfileEmail(ctx, "admin", "b@gl-express.eu", t2)
	require.NoError(t, err)
	require.Equal(t, "b@gl-express.eu", *p.Email)
	require.True(t, p.CreatedAt.Equal(t1))
	require.True(t, p.UpdatedAt.Equal(t2))

	// возвращается копия
	*p.Email = "mutated"
	got, err := s.GetProfile(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "b@gl-express.eu", *got.Email)
}
