package packages

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	cachemocks "github.com/BearBump/GLExpress/internal/cache/mocks"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/services/ingestion"
	packagesmocks "github.com/BearBump/GLExpress/internal/services/packages/mocks"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type fixedRand int

func (r fixedRand) Intn(n int) int { return int(r) % n }

type ServiceSuite struct {
	suite.Suite

	repo   *packagesmocks.MockRepository
	cache  *cachemocks.MockBytesCache
	engine *packagesmocks.MockProgression
	now    time.Time
	svc    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.repo = &packagesmocks.MockRepository{}
	s.cache = &cachemocks.MockBytesCache{}
	s.engine = &packagesmocks.MockProgression{}
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	gen := ingestion.NewGeneratorWith("GL", func() time.Time { return s.now }, fixedRand(5))
	s.svc = New(s.repo, s.cache, 10*time.Minute, gen, s.engine)
	s.svc.now = func() time.Time { return s.now }
}

func (s *ServiceSuite) TestLookup_CacheHit_NoDB() {
	v := models.TrackingView{
		Package: &models.Package{ID: "p1", TrackingNumber: "GL1", CurrentStatus: models.StatusInTransit},
		History: []*models.StatusHistoryEntry{{Status: models.StatusRegistered}, {Status: models.StatusInTransit}},
	}
	b, _ := json.Marshal(v)
	s.cache.On("Get", mock.Anything, "lookup:GL1").Return(b, true, nil).Once()

	out, err := s.svc.Lookup(context.Background(), " gl1 ")
	s.Require().NoError(err)
	s.Require().Equal("p1", out.Package.ID)
	s.Require().Len(out.History, 2)

	// DB не трогали
	s.repo.AssertNotCalled(s.T(), "GetPackageByTrackingNumber", mock.Anything, mock.Anything)
	s.cache.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestLookup_CacheMissLoadsAndStores() {
	p := &models.Package{ID: "p1", TrackingNumber: "GL1"}
	hist := []*models.StatusHistoryEntry{{Status: models.StatusRegistered}}

	s.cache.On("Get", mock.Anything, "lookup:GL1").Return([]byte(nil), false, nil).Once()
	s.repo.On("GetPackageByTrackingNumber", mock.Anything, "GL1").Return(p, nil).Once()
	s.repo.On("ListStatusHistory", mock.Anything, "p1").Return(hist, nil).Once()
	// ошибки Set игнорируются
	s.cache.On("Set", mock.Anything, "lookup:GL1", mock.Anything, 10*time.Minute).Return(errors.New("redis down")).Once()

	out, err := s.svc.Lookup(context.Background(), "GL1")
	s.Require().NoError(err)
	s.Require().Equal(p, out.Package)
	s.repo.AssertExpectations(s.T())
	s.cache.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestLookup_CacheErrorsAndBadJSONAreMisses() {
	p := &models.Package{ID: "p1", TrackingNumber: "GL1"}

	// 1) cache get error -> miss
	s.cache.On("Get", mock.Anything, "lookup:GL1").Return([]byte(nil), false, errors.New("boom")).Once()
	// 2) cache ok but bad json -> miss
	s.cache.On("Get", mock.Anything, "lookup:GL1").Return([]byte("{"), true, nil).Once()
	s.cache.On("Set", mock.Anything, "lookup:GL1", mock.Anything, mock.Anything).Return(nil).Twice()
	s.repo.On("GetPackageByTrackingNumber", mock.Anything, "GL1").Return(p, nil).Twice()
	s.repo.On("ListStatusHistory", mock.Anything, "p1").Return([]*models.StatusHistoryEntry{}, nil).Twice()

	for i := 0; i < 2; i++ {
		_, err := s.svc.Lookup(context.Background(), "GL1")
		s.Require().NoError(err)
	}
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestLookup_NotFoundIsDistinct() {
	svc := New(s.repo, nil, 0, nil, nil)
	s.repo.On("GetPackageByTrackingNumber", mock.Anything, "NOPE").
		Return(nil, errors.Wrap(models.ErrNotFound, "tracking number NOPE")).Once()
	s.repo.On("GetPackageByTrackingNumber", mock.Anything, "FLAKY").
		Return(nil, errors.New("connection refused")).Once()

	_, err := svc.Lookup(context.Background(), "nope")
	s.Require().True(errors.Is(err, models.ErrNotFound))

	_, err = svc.Lookup(context.Background(), "flaky")
	s.Require().Error(err)
	s.Require().False(errors.Is(err, models.ErrNotFound))

	_, err = svc.Lookup(context.Background(), "  ")
	s.Require().True(errors.Is(err, models.ErrValidation))

	s.cache.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestCreatePackage_GeneratesNumberAndSeedsHistory() {
	weight := 1.5
	s.repo.On("CreatePackage", mock.Anything,
		mock.MatchedBy(func(in models.PackageCreateInput) bool {
			return in.TrackingNumber == "GL01234567005" || len(in.TrackingNumber) == 13
		}),
		mock.MatchedBy(func(h *models.StatusHistoryEntry) bool {
			return h != nil && h.Status == models.StatusRegistered && h.CreatedAt.Equal(s.now)
		}),
	).Return(func(_ context.Context, in models.PackageCreateInput, _ *models.StatusHistoryEntry) *models.Package {
		return &models.Package{ID: in.ID, TrackingNumber: in.TrackingNumber, ServiceType: in.ServiceType, CurrentStatus: in.CurrentStatus}
	}, nil).Once()

	p, err := s.svc.CreatePackage(context.Background(), CreatePackageRequest{
		RecipientName:    "Grace Hopper",
		RecipientAddress: "1 Navy Way, Arlington",
		RecipientEmail:   "grace@example.com",
		Weight:           &weight,
		ServiceType:      "Express",
	})
	s.Require().NoError(err)
	s.Require().Regexp(`^GL\d{11}$`, p.TrackingNumber)
	s.Require().Equal(models.ServiceExpress, p.ServiceType)
	s.Require().Equal(models.StatusRegistered, p.CurrentStatus)
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestCreatePackage_ValidationErrors() {
	neg := -1.0
	cases := []CreatePackageRequest{
		{RecipientName: "X"},
		{RecipientAddress: "Somewhere"},
		{RecipientName: "X", RecipientAddress: "Y", RecipientEmail: "not-an-email"},
		{RecipientName: "X", RecipientAddress: "Y", Weight: &neg},
		{RecipientName: "X", RecipientAddress: "Y", ServiceType: "teleport"},
		{RecipientName: "X", RecipientAddress: "Y", TrackingNumber: "bad number!"},
	}
	for _, req := range cases {
		_, err := s.svc.CreatePackage(context.Background(), req)
		s.Require().True(errors.Is(err, models.ErrValidation), "%+v", req)
	}
	s.repo.AssertNotCalled(s.T(), "CreatePackage", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestCreatePackage_ExplicitNumberConflictNotRetried() {
	s.repo.On("CreatePackage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(models.ErrConflict, "dup")).Once()

	_, err := s.svc.CreatePackage(context.Background(), CreatePackageRequest{
		TrackingNumber: "gl123", RecipientName: "X", RecipientAddress: "Y",
	})
	s.Require().True(errors.Is(err, models.ErrConflict))
	s.repo.AssertNumberOfCalls(s.T(), "CreatePackage", 1)
}

func (s *ServiceSuite) TestUpdateStatus_AppendsManualNoteAndInvalidates() {
	s.repo.On("ApplyStatusChange", mock.Anything, mock.MatchedBy(func(ch models.StatusChange) bool {
		return ch.PackageID == "p1" &&
			!ch.Conditional() &&
			ch.To == models.StatusOutForDelivery &&
			models.DerefString(ch.Notes) == ManualNotes+": driver called" &&
			models.DerefString(ch.Location) == "Riga depot"
	})).Return(&models.Package{ID: "p1", TrackingNumber: "GL1", CurrentStatus: models.StatusOutForDelivery}, nil).Once()
	s.cache.On("Del", mock.Anything, "lookup:GL1").Return(nil).Once()

	p, err := s.svc.UpdateStatus(context.Background(), "p1", UpdateStatusRequest{
		Status:   "Out for delivery",
		Location: "Riga depot",
		Notes:    "driver called",
	})
	s.Require().NoError(err)
	s.Require().Equal(models.StatusOutForDelivery, p.CurrentStatus)
	s.repo.AssertExpectations(s.T())
	s.cache.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestUpdateStatus_UnknownStatus() {
	_, err := s.svc.UpdateStatus(context.Background(), "p1", UpdateStatusRequest{Status: "lost_in_space"})
	s.Require().True(errors.Is(err, models.ErrValidation))

	_, err = s.svc.UpdateStatus(context.Background(), "p1", UpdateStatusRequest{})
	s.Require().True(errors.Is(err, models.ErrValidation))
	s.repo.AssertNotCalled(s.T(), "ApplyStatusChange", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestUpdateRecipientEmail() {
	s.repo.On("UpdateRecipientEmail", mock.Anything, "p1", mock.MatchedBy(func(e *string) bool {
		return e != nil && *e == "new@example.com"
	}), s.now).Return(&models.Package{ID: "p1", TrackingNumber: "GL1"}, nil).Once()
	s.repo.On("UpdateRecipientEmail", mock.Anything, "p1", (*string)(nil), s.now).
		Return(&models.Package{ID: "p1", TrackingNumber: "GL1"}, nil).Once()
	s.cache.On("Del", mock.Anything, "lookup:GL1").Return(nil).Twice()

	_, err := s.svc.UpdateRecipientEmail(context.Background(), "p1", " new@example.com ")
	s.Require().NoError(err)
	_, err = s.svc.UpdateRecipientEmail(context.Background(), "p1", "")
	s.Require().NoError(err)

	_, err = s.svc.UpdateRecipientEmail(context.Background(), "p1", "nope")
	s.Require().True(errors.Is(err, models.ErrValidation))
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestDeletePackages_DedupAndInvalidate() {
	s.repo.On("GetPackageByID", mock.Anything, "p1").Return(&models.Package{ID: "p1", TrackingNumber: "GL1"}, nil).Once()
	s.repo.On("GetPackageByID", mock.Anything, "p2").Return(nil, errors.Wrap(models.ErrNotFound, "p2")).Once()
	s.repo.On("DeletePackages", mock.Anything, []string{"p1", "p2"}).Return(int64(1), nil).Once()
	s.cache.On("Del", mock.Anything, "lookup:GL1").Return(nil).Once()

	n, err := s.svc.DeletePackages(context.Background(), []string{"p1", " p1 ", "p2", ""})
	s.Require().NoError(err)
	s.Require().EqualValues(1, n)
	s.repo.AssertExpectations(s.T())
	s.cache.AssertExpectations(s.T())

	_, err = s.svc.DeletePackages(context.Background(), nil)
	s.Require().True(errors.Is(err, models.ErrValidation))
}

func (s *ServiceSuite) TestUpdateStatusConfig() {
	hours := 3
	name := "  Picked up "
	s.repo.On("UpdateStatusConfig", mock.Anything, models.StatusReadyForPickup, mock.MatchedBy(func(p models.StatusConfigPatch) bool {
		return p.HoursAfterPrevious != nil && *p.HoursAfterPrevious == 3 && *p.DisplayName == "Picked up" && p.IsActive == nil
	}), s.now).Return(&models.StatusConfig{Status: models.StatusReadyForPickup, HoursAfterPrevious: 3}, nil).Once()

	c, err := s.svc.UpdateStatusConfig(context.Background(), "ready_for_pickup", UpdateStatusConfigRequest{
		HoursAfterPrevious: &hours,
		DisplayName:        &name,
	})
	s.Require().NoError(err)
	s.Require().Equal(3, c.HoursAfterPrevious)

	neg := -2
	_, err = s.svc.UpdateStatusConfig(context.Background(), "in_transit", UpdateStatusConfigRequest{DaysAfterPrevious: &neg})
	s.Require().True(errors.Is(err, models.ErrValidation))

	_, err = s.svc.UpdateStatusConfig(context.Background(), "warp_speed", UpdateStatusConfigRequest{})
	s.Require().True(errors.Is(err, models.ErrValidation))
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestTriggerProgression() {
	s.engine.On("EvaluateAndAdvance", mock.Anything).Return(progression.RunResult{Evaluated: 4, Advanced: 1}, nil).Once()

	res, err := s.svc.TriggerProgression(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(1, res.Advanced)
	s.engine.AssertExpectations(s.T())

	_, err = New(s.repo, nil, 0, nil, nil).TriggerProgression(context.Background())
	s.Require().Error(err)
}

func (s *ServiceSuite) TestUpdateProfile() {
	email := "ops@gl-express.eu"
	s.repo.On("UpsertProfileEmail", mock.Anything, "admin", email, s.now).
		Return(&models.Profile{ID: "admin", Email: &email, Role: models.RoleAdmin}, nil).Once()

	p, err := s.svc.UpdateProfile(context.Background(), " admin ", UpdateProfileRequest{Email: "  ops@gl-express.eu "})
	s.Require().NoError(err)
	s.Require().Equal(email, *p.Email)

	for _, bad := range []string{"", "   ", "ops@", "not an email"} {
		_, err = s.svc.UpdateProfile(context.Background(), "admin", UpdateProfileRequest{Email: bad})
		s.Require().True(errors.Is(err, models.ErrValidation), bad)
	}
	_, err = s.svc.UpdateProfile(context.Background(), "", UpdateProfileRequest{Email: email})
	s.Require().True(errors.Is(err, models.ErrValidation))

	s.repo.AssertExpectations(s.T())
	s.repo.AssertNumberOfCalls(s.T(), "UpsertProfileEmail", 1)
}

func (s *ServiceSuite) TestGetProfile() {
	s.repo.On("GetProfile", mock.Anything, "ghost").Return(nil, errors.Wrap(models.ErrNotFound, "profile ghost")).Once()

	_, err := s.svc.GetProfile(context.Background(), "ghost")
	s.Require().True(errors.Is(err, models.ErrNotFound))

	_, err = s.svc.GetProfile(context.Background(), " ")
	s.Require().True(errors.Is(err, models.ErrValidation))
	s.repo.AssertExpectations(s.T())
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
