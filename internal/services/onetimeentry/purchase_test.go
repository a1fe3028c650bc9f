package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

func (m *mockRepository) GetOneTimeEntry(ctx context.Context, id int) (*models.OneTimeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OneTimeEntry), args.Error(1)
}

func (m *mockRepository) CreateUserOneTimeEntry(ctx context.Context, e models.UserOneTimeEntry) (int, error) {
	args := m.Called(ctx, e)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) CountUnusedOneTimeEntries(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) CreateTransactionHistory(ctx context.Context, t models.TransactionHistory) (int, error) {
	args := m.Called(ctx, t)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) FindFreeGuestUser(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepository) CreateGuestUser(ctx context.Context, user models.User) (int, error) {
	args := m.Called(ctx, user)
	return args.Int(0), args.Error(1)
}

type mockCardAssigner struct {
	mock.Mock
}

func (m *mockCardAssigner) Assign(ctx context.Context, req models.DummyAssignCard) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

var testToday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newTestService(repo *mockRepository, cards *mockCardAssigner, cache *mockCache) *PurchaseService {
	svc := NewPurchaseService(repo, cards, cache, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return testToday }
	return svc
}

func expectCacheMiss(cache *mockCache) {
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func TestPurchase_SingleEntry(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)
	expectCacheMiss(cache)

	entry := &models.OneTimeEntry{ID: 1, EntryName: "Day pass", Price: 250}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 1).Return(nil)
	repo.On("GetUserByID", mock.Anything, 1).Return(&models.User{ID: 1}, nil)
	repo.On("GetOneTimeEntry", mock.Anything, 1).Return(entry, nil)
	repo.On("CreateUserOneTimeEntry", mock.Anything, models.UserOneTimeEntry{
		UserID: 1, OneTimeEntryID: 1, PurchaseDate: testToday,
	}).Return(100, nil)
	repo.On("CreateTransactionHistory", mock.Anything, mock.MatchedBy(func(tr models.TransactionHistory) bool {
		return tr.Amount == 250 && tr.PurchaseType == "OneTimeEntry" &&
			tr.UserOneTimeEntryID != nil && *tr.UserOneTimeEntryID == 100 &&
			tr.Description == "Purchase of a one-time entry (Day pass)"
	})).Return(1, nil)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 1).Return(3, nil)

	result, err := svc.Purchase(context.Background(), models.DummyPurchase{UserID: 1, OneTimeEntryID: 1})

	require.NoError(t, err)
	assert.Equal(t, []int{100}, result.PurchasedIDs)
	assert.Equal(t, 3, result.RemainingEntries)
	repo.AssertExpectations(t)
}

func TestPurchase_BatchWritesTransactionPerEntry(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)
	expectCacheMiss(cache)

	entry := &models.OneTimeEntry{ID: 1, EntryName: "Day pass", Price: 250}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 1).Return(nil)
	repo.On("GetUserByID", mock.Anything, 1).Return(&models.User{ID: 1}, nil)
	repo.On("GetOneTimeEntry", mock.Anything, 1).Return(entry, nil)
	repo.On("CreateUserOneTimeEntry", mock.Anything, mock.Anything).Return(100, nil).Times(3)
	repo.On("CreateTransactionHistory", mock.Anything, mock.Anything).Return(1, nil).Times(3)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 1).Return(3, nil)

	result, err := svc.Purchase(context.Background(), models.DummyPurchase{UserID: 1, OneTimeEntryID: 1, Count: 3})

	require.NoError(t, err)
	assert.Len(t, result.PurchasedIDs, 3)
	repo.AssertExpectations(t)
}

func TestPurchase_CustomPriceOverridesAmount(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)
	expectCacheMiss(cache)

	price := 99.0
	entry := &models.OneTimeEntry{ID: 1, EntryName: "Day pass", Price: 250}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 1).Return(nil)
	repo.On("GetUserByID", mock.Anything, 1).Return(&models.User{ID: 1}, nil)
	repo.On("GetOneTimeEntry", mock.Anything, 1).Return(entry, nil)
	repo.On("CreateUserOneTimeEntry", mock.Anything, mock.MatchedBy(func(e models.UserOneTimeEntry) bool {
		return e.CustomPrice != nil && *e.CustomPrice == 99.0
	})).Return(100, nil)
	repo.On("CreateTransactionHistory", mock.Anything, mock.MatchedBy(func(tr models.TransactionHistory) bool {
		return tr.Amount == 99.0
	})).Return(1, nil)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 1).Return(1, nil)

	_, err := svc.Purchase(context.Background(), models.DummyPurchase{
		UserID: 1, OneTimeEntryID: 1, CustomPrice: &price,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPurchase_UnknownUser(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 9).Return(nil)
	repo.On("GetUserByID", mock.Anything, 9).Return(nil, storage.ErrNotFound)

	_, err := svc.Purchase(context.Background(), models.DummyPurchase{UserID: 9, OneTimeEntryID: 1})

	require.ErrorIs(t, err, storage.ErrNotFound)
	repo.AssertNotCalled(t, "CreateUserOneTimeEntry", mock.Anything, mock.Anything)
}

func TestPurchaseForGuest_ReusesFreeGuest(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)
	expectCacheMiss(cache)

	guest := &models.User{ID: 20, Firstname: "Guest", Lastname: "User", RealUser: false}
	entry := &models.OneTimeEntry{ID: 1, EntryName: "Day pass", Price: 250}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("FindFreeGuestUser", mock.Anything).Return(guest, nil)
	cards.On("Assign", mock.Anything, models.DummyAssignCard{UserID: 20, CardNumber: "GUEST1"}).Return(nil)
	repo.On("GetOneTimeEntry", mock.Anything, 1).Return(entry, nil)
	repo.On("CreateUserOneTimeEntry", mock.Anything, mock.Anything).Return(200, nil)
	repo.On("CreateTransactionHistory", mock.Anything, mock.Anything).Return(1, nil)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 20).Return(1, nil)

	result, err := svc.PurchaseForGuest(context.Background(), models.DummyGuestPurchase{
		CardNumber: "GUEST1", OneTimeEntryID: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, 20, result.UserID)
	repo.AssertNotCalled(t, "CreateGuestUser", mock.Anything, mock.Anything)
	cards.AssertExpectations(t)
}

func TestPurchaseForGuest_CreatesGuestWhenNoneFree(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)
	expectCacheMiss(cache)

	entry := &models.OneTimeEntry{ID: 1, EntryName: "Day pass", Price: 250}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("FindFreeGuestUser", mock.Anything).Return(nil, storage.ErrNotFound)
	repo.On("CreateGuestUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Firstname == "Guest" && u.Lastname == "User" && !u.RealUser &&
			strings.HasPrefix(u.Email, "guest-") && strings.HasSuffix(u.Email, "@example.com")
	})).Return(21, nil)
	cards.On("Assign", mock.Anything, models.DummyAssignCard{UserID: 21, CardNumber: "GUEST2"}).Return(nil)
	repo.On("GetOneTimeEntry", mock.Anything, 1).Return(entry, nil)
	repo.On("CreateUserOneTimeEntry", mock.Anything, mock.Anything).Return(201, nil)
	repo.On("CreateTransactionHistory", mock.Anything, mock.Anything).Return(1, nil)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 21).Return(1, nil)

	result, err := svc.PurchaseForGuest(context.Background(), models.DummyGuestPurchase{
		CardNumber: "GUEST2", OneTimeEntryID: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, 21, result.UserID)
	repo.AssertExpectations(t)
}

func TestPurchaseForGuest_AssignFailureAbortsPurchase(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)

	guest := &models.User{ID: 20, RealUser: false}

	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("FindFreeGuestUser", mock.Anything).Return(guest, nil)
	cards.On("Assign", mock.Anything, mock.Anything).Return(storage.ErrAlreadyExists)

	_, err := svc.PurchaseForGuest(context.Background(), models.DummyGuestPurchase{
		CardNumber: "GUEST3", OneTimeEntryID: 1,
	})

	require.ErrorIs(t, err, storage.ErrAlreadyExists)
	repo.AssertNotCalled(t, "CreateUserOneTimeEntry", mock.Anything, mock.Anything)
}

func TestPurchase_EntryFromCacheSkipsStorage(t *testing.T) {
	repo := new(mockRepository)
	cards := new(mockCardAssigner)
	cache := new(mockCache)
	svc := newTestService(repo, cards, cache)

	cache.On("Get", mock.Anything, "onetimeentry:1", mock.Anything).
		Run(func(args mock.Arguments) {
			entry := args.Get(2).(*models.OneTimeEntry)
			*entry = models.OneTimeEntry{ID: 1, EntryName: "Day pass", Price: 250}
		}).Return(true, nil)
	repo.On("WithinTx", mock.Anything).Return(nil)
	repo.On("LockUser", mock.Anything, 1).Return(nil)
	repo.On("GetUserByID", mock.Anything, 1).Return(&models.User{ID: 1}, nil)
	repo.On("CreateUserOneTimeEntry", mock.Anything, mock.Anything).Return(100, nil)
	repo.On("CreateTransactionHistory", mock.Anything, mock.Anything).Return(1, nil)
	repo.On("CountUnusedOneTimeEntries", mock.Anything, 1).Return(1, nil)

	_, err := svc.Purchase(context.Background(), models.DummyPurchase{UserID: 1, OneTimeEntryID: 1})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "GetOneTimeEntry", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}
