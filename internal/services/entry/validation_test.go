package services

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-access-control/internal/lib/motivation"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

func (m *mockRepository) LockUser(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepository) ListUserSubscriptions(ctx context.Context, userID int) ([]*models.UserSubscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserSubscription), args.Error(1)
}

func (m *mockRepository) ListUserOneTimeEntries(ctx context.Context, userID int) ([]*models.UserOneTimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserOneTimeEntry), args.Error(1)
}

func (m *mockRepository) MarkOneTimeEntryUsed(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CountUnusedOneTimeEntries(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) CreateEntryHistory(ctx context.Context, h models.EntryHistory) (int, error) {
	args := m.Called(ctx, h)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) GetCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error) {
	args := m.Called(ctx, cardNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PublishEntryStatus(msg models.EntryStatusMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func newTestService(repo *mockRepository, notify *mockNotifier) *EntryValidationService {
	log := slog.New(slog.DiscardHandler)
	svc := NewEntryValidationService(repo, notify, motivation.New(rand.NewSource(1)), log)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestCanEnter_ActiveSubscription(t *testing.T) {
	repo := new(mockRepository)
	notify := new(mockNotifier)
	svc := newTestService(repo, notify)

	user := &models.User{ID: 7, Firstname: "Jana", Lastname: "Novakova"}
	subs := []*models.UserSubscription{
		{ID: 1, UserID: 7, IsActive: false, EndDate: time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, UserID: 7, IsActive: true, EndDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)},
	}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 7).Return(nil)
	repo.On("GetUserByID", mock.Anything, 7).Return(user, nil)
	repo.On("ListUserSubscriptions", mock.Anything, 7).Return(subs, nil)
	repo.On("CreateEntryHistory", mock.Anything, models.EntryHistory{
		UserID:    7,
		EntryType: models.EntryTypeSubscription,
	}).Return(1, nil)
	notify.On("PublishEntryStatus", mock.MatchedBy(func(msg models.EntryStatusMessage) bool {
		return msg.Status == models.StatusOKSubscription &&
			msg.ExpiryDate == "2025-03-10" &&
			msg.UserID == 7 &&
			msg.Text != ""
	})).Return(nil)

	result, err := svc.CanEnter(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, models.EntryTypeSubscription, result.ConsumedType)
	repo.AssertNotCalled(t, "MarkOneTimeEntryUsed", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	notify.AssertExpectations(t)
}

func TestCanEnter_ExpiredSubscriptionFallsBackToOneTimeEntry(t *testing.T) {
	repo := new(mockRepository)
	notify := new(mockNotifier)
	svc := newTestService(repo, notify)

	user := &models.User{ID: 3, Firstname: "Petr", Lastname: "Svoboda"}
	subs := []*models.UserSubscription{
		{ID: 1, UserID: 3, IsActive: true, EndDate: time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)},
	}
	entries := []*models.UserOneTimeEntry{
		{ID: 10, UserID: 3, IsUsed: true},
		{ID: 11, UserID: 3, IsUsed: false},
		{ID: 12, UserID: 3, IsUsed: false},
	}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 3).Return(nil)
	repo.On("GetUserByID", mock.Anything, 3).Return(user, nil)
	repo.On("ListUserSubscriptions", mock.Anything, 3).Return(subs, nil)
	repo.On("ListUserOneTimeEntries", mock.Anything, 3).Return(entries, nil)
	repo.On("MarkOneTimeEntryUsed", mock.Anything, 11).Return(nil)
	repo.On("CreateEntryHistory", mock.Anything, models.EntryHistory{
		UserID:    3,
		EntryType: models.EntryTypeOneTimeEntry,
	}).Return(2, nil)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 3).Return(1, nil)
	notify.On("PublishEntryStatus", mock.MatchedBy(func(msg models.EntryStatusMessage) bool {
		return msg.Status == models.StatusOKOneTimeEntry &&
			msg.RemainingEntries != nil && *msg.RemainingEntries == 1
	})).Return(nil)

	result, err := svc.CanEnter(context.Background(), 3)

	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, models.EntryTypeOneTimeEntry, result.ConsumedType)
	repo.AssertExpectations(t)
	notify.AssertExpectations(t)
}

func TestCanEnter_NoValidEntry(t *testing.T) {
	repo := new(mockRepository)
	notify := new(mockNotifier)
	svc := newTestService(repo, notify)

	user := &models.User{ID: 5, Firstname: "Eva", Lastname: "Dvorakova"}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 5).Return(nil)
	repo.On("GetUserByID", mock.Anything, 5).Return(user, nil)
	repo.On("ListUserSubscriptions", mock.Anything, 5).Return([]*models.UserSubscription{}, nil)
	repo.On("ListUserOneTimeEntries", mock.Anything, 5).Return([]*models.UserOneTimeEntry{}, nil)
	notify.On("PublishEntryStatus", mock.MatchedBy(func(msg models.EntryStatusMessage) bool {
		return msg.Status == models.StatusNoValidEntry && msg.RemainingEntries == nil
	})).Return(nil)

	result, err := svc.CanEnter(context.Background(), 5)

	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Empty(t, result.ConsumedType)
	repo.AssertNotCalled(t, "CreateEntryHistory", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOneTimeEntryUsed", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	notify.AssertExpectations(t)
}

func TestCanEnter_UnknownUser(t *testing.T) {
	repo := new(mockRepository)
	notify := new(mockNotifier)
	svc := newTestService(repo, notify)

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 99).Return(nil)
	repo.On("GetUserByID", mock.Anything, 99).Return(nil, storage.ErrNotFound)

	result, err := svc.CanEnter(context.Background(), 99)

	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, result)
	notify.AssertNotCalled(t, "PublishEntryStatus", mock.Anything)
}

func TestCanEnter_NotifierFailureDoesNotDenyEntry(t *testing.T) {
	repo := new(mockRepository)
	notify := new(mockNotifier)
	svc := newTestService(repo, notify)

	user := &models.User{ID: 4, Firstname: "Karel", Lastname: "Cerny"}
	subs := []*models.UserSubscription{
		{ID: 1, UserID: 4, IsActive: true, EndDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
	}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 4).Return(nil)
	repo.On("GetUserByID", mock.Anything, 4).Return(user, nil)
	repo.On("ListUserSubscriptions", mock.Anything, 4).Return(subs, nil)
	repo.On("CreateEntryHistory", mock.Anything, mock.Anything).Return(1, nil)
	notify.On("PublishEntryStatus", mock.Anything).Return(assert.AnError)

	result, err := svc.CanEnter(context.Background(), 4)

	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestCanEnterByCard(t *testing.T) {
	userID := 8

	cases := []struct {
		name    string
		card    *models.Card
		cardErr error
		wantErr error
	}{
		{
			name: "назначенная карта проходит проверку",
			card: &models.Card{ID: 1, CardNumber: "CARD100", UserID: &userID},
		},
		{
			name:    "незарегистрированная карта",
			cardErr: storage.ErrNotFound,
			wantErr: storage.ErrNotFound,
		},
		{
			name:    "карта без владельца",
			card:    &models.Card{ID: 2, CardNumber: "CARD200"},
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mockRepository)
			notify := new(mockNotifier)
			svc := newTestService(repo, notify)

			repo.On("GetCardByNumber", mock.Anything, mock.Anything).Return(tc.card, tc.cardErr)
			if tc.wantErr == nil {
				user := &models.User{ID: userID, Firstname: "Lucie", Lastname: "Horakova"}
				repo.On("WithinTx", mock.Anything).Return(nil)
				repo.On("LockUser", mock.Anything, userID).Return(nil)
				repo.On("GetUserByID", mock.Anything, userID).Return(user, nil)
				repo.On("ListUserSubscriptions", mock.Anything, userID).Return([]*models.UserSubscription{
					{ID: 1, UserID: userID, IsActive: true, EndDate: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)},
				}, nil)
				repo.On("CreateEntryHistory", mock.Anything, mock.Anything).Return(1, nil)
				notify.On("PublishEntryStatus", mock.Anything).Return(nil)
			}

			result, err := svc.CanEnterByCard(context.Background(), "CARD100")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				notify.AssertNotCalled(t, "PublishEntryStatus", mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.True(t, result.Allowed)
		})
	}
}
