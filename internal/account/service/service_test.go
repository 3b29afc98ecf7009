package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"leasekeeper/internal/account/models"
	"leasekeeper/internal/account/service/mocks"
	"leasekeeper/internal/account/store"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	service   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.service = New(s.mockStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock.NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestCreateAccount_DuplicateNameIsConflict() {
	s.mockStore.EXPECT().CreateIfNameAvailable(gomock.Any(), gomock.Any()).Return(sentinel.ErrDuplicate)

	_, err := s.service.CreateAccount(context.Background(), "Acme", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreateAccount_InvalidInputNeverReachesStore() {
	_, err := s.service.CreateAccount(context.Background(), "  ", "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = s.service.CreateAccount(context.Background(), "Acme", "not-an-email")
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestGetAccount_ErrorMapping() {
	accountID := id.AccountID(uuid.New())

	s.Run("not found", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), accountID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.GetAccount(context.Background(), accountID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), accountID).Return(nil, assert.AnError)
		_, err := s.service.GetAccount(context.Background(), accountID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("nil id", func() {
		_, err := s.service.GetAccount(context.Background(), id.AccountID{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestIsActive_UnknownAccountIsInactive() {
	accountID := id.AccountID(uuid.New())
	s.mockStore.EXPECT().FindByID(gomock.Any(), accountID).Return(nil, sentinel.ErrNotFound)

	active, err := s.service.IsActive(context.Background(), accountID)
	s.NoError(err)
	s.False(active)
}

func (s *ServiceSuite) TestListActiveScopes_WrapsStoreError() {
	s.mockStore.EXPECT().ListActiveIDs(gomock.Any()).Return(nil, assert.AnError)
	_, err := s.service.ListActiveScopes(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestLifecycleAgainstMemoryStore(t *testing.T) {
	ctx := context.Background()
	fixed := clock.NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := New(store.NewInMemory(), WithClock(fixed))

	first, err := svc.CreateAccount(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)
	fixed.Advance(time.Minute)
	second, err := svc.CreateAccount(ctx, "Globex", "")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, "acme", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	scopes, err := svc.ListActiveScopes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.AccountID{first.ID, second.ID}, scopes)

	deactivated, err := svc.DeactivateAccount(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, deactivated.Status)

	_, err = svc.DeactivateAccount(ctx, first.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	scopes, err = svc.ListActiveScopes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.AccountID{second.ID}, scopes)

	email, err := svc.NotificationEmail(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops@acme.test", email)

	_, err = svc.NotificationEmail(ctx, second.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.ReactivateAccount(ctx, first.ID)
	require.NoError(t, err)
	active, err := svc.IsActive(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, active)
}
