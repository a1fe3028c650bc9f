// Package services реализует покупку разовых входов, включая гостевой
// сценарий по клубной карте.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/gym-access-control/internal/lib/dates"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Repository определяет методы хранилища для покупки разовых входов.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, id int) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetOneTimeEntry(ctx context.Context, id int) (*models.OneTimeEntry, error)
	CreateUserOneTimeEntry(ctx context.Context, e models.UserOneTimeEntry) (int, error)
	CountUnusedOneTimeEntries(ctx context.Context, userID int) (int, error)
	CreateTransactionHistory(ctx context.Context, t models.TransactionHistory) (int, error)
	FindFreeGuestUser(ctx context.Context) (*models.User, error)
	CreateGuestUser(ctx context.Context, user models.User) (int, error)
}

// CardAssigner привязывает карту к пользователю. В гостевом сценарии
// вызов происходит внутри уже открытой транзакции и присоединяется к ней.
type CardAssigner interface {
	Assign(ctx context.Context, req models.DummyAssignCard) error
}

// CatalogCache кэширует позиции каталога разовых входов.
type CatalogCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

const catalogCacheTTL = 10 * time.Minute

// PurchaseResult описывает итог покупки разовых входов.
type PurchaseResult struct {
	UserID           int   `json:"user_id"`
	PurchasedIDs     []int `json:"purchased_ids"`
	RemainingEntries int   `json:"remaining_entries"`
}

// PurchaseService управляет покупкой разовых входов.
type PurchaseService struct {
	repo  Repository
	cards CardAssigner
	cache CatalogCache
	log   *slog.Logger

	now func() time.Time
}

// NewPurchaseService создаёт новый экземпляр PurchaseService.
func NewPurchaseService(repo Repository, cards CardAssigner, cache CatalogCache, log *slog.Logger) *PurchaseService {
	return &PurchaseService{repo: repo, cards: cards, cache: cache, log: log, now: dates.Today}
}

// Purchase покупает разовые входы для существующего пользователя.
// Count по умолчанию равен одному. Каждый купленный вход получает
// собственную запись биллингового журнала со ссылкой на него.
func (s *PurchaseService) Purchase(ctx context.Context, req models.DummyPurchase) (*PurchaseResult, error) {
	const op = "services.onetimeentry.Purchase"

	var result *PurchaseResult
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockUser(ctx, req.UserID); err != nil {
			return err
		}
		if _, err := s.repo.GetUserByID(ctx, req.UserID); err != nil {
			return err
		}
		var err error
		result, err = s.purchaseLocked(ctx, req.UserID, req.OneTimeEntryID, req.Count, req.CustomPrice)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("one-time entries purchased",
		sl.UserID(req.UserID),
		slog.Int("count", len(result.PurchasedIDs)),
		slog.Int("remaining", result.RemainingEntries))
	return result, nil
}

// PurchaseForGuest покупает разовые входы для гостя по клубной карте.
//
// Гостем становится существующий технический пользователь без
// неиспользованных входов либо, если такого нет, свежесозданный.
// Карта привязывается к гостю и покупка выполняется в одной транзакции.
func (s *PurchaseService) PurchaseForGuest(ctx context.Context, req models.DummyGuestPurchase) (*PurchaseResult, error) {
	const op = "services.onetimeentry.PurchaseForGuest"

	var result *PurchaseResult
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		guest, err := s.findOrCreateGuest(ctx)
		if err != nil {
			return err
		}
		if err := s.cards.Assign(ctx, models.DummyAssignCard{
			UserID:     guest.ID,
			CardNumber: req.CardNumber,
		}); err != nil {
			return err
		}
		result, err = s.purchaseLocked(ctx, guest.ID, req.OneTimeEntryID, req.Count, req.CustomPrice)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("guest one-time entries purchased",
		sl.UserID(result.UserID),
		slog.String("card_number", req.CardNumber),
		slog.Int("count", len(result.PurchasedIDs)))
	return result, nil
}

// purchaseLocked выполняет покупку для уже заблокированного пользователя.
func (s *PurchaseService) purchaseLocked(ctx context.Context, userID, entryID, count int, customPrice *float64) (*PurchaseResult, error) {
	entry, err := s.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	amount := entry.Price
	if customPrice != nil {
		amount = *customPrice
	}
	purchaseDate := s.now()

	ids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		id, err := s.repo.CreateUserOneTimeEntry(ctx, models.UserOneTimeEntry{
			UserID:         userID,
			OneTimeEntryID: entry.ID,
			PurchaseDate:   purchaseDate,
			CustomPrice:    customPrice,
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.repo.CreateTransactionHistory(ctx, models.TransactionHistory{
			UserID:             userID,
			Amount:             amount,
			Description:        fmt.Sprintf("Purchase of a one-time entry (%s)", entry.EntryName),
			PurchaseType:       "OneTimeEntry",
			UserOneTimeEntryID: &id,
		}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	remaining, err := s.repo.CountUnusedOneTimeEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{
		UserID:           userID,
		PurchasedIDs:     ids,
		RemainingEntries: remaining,
	}, nil
}

// getEntry читает позицию каталога через кэш. Каталог неизменяемый,
// поэтому запись живёт весь TTL без инвалидации.
func (s *PurchaseService) getEntry(ctx context.Context, id int) (*models.OneTimeEntry, error) {
	key := fmt.Sprintf("onetimeentry:%d", id)

	var cached models.OneTimeEntry
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read one-time entry from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	entry, err := s.repo.GetOneTimeEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, entry, catalogCacheTTL); err != nil {
		s.log.Warn("failed to cache one-time entry", sl.Err(err))
	}
	return entry, nil
}

// findOrCreateGuest переиспользует свободного технического пользователя
// или регистрирует нового с синтетическим адресом.
func (s *PurchaseService) findOrCreateGuest(ctx context.Context) (*models.User, error) {
	guest, err := s.repo.FindFreeGuestUser(ctx)
	switch {
	case err == nil:
		return guest, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	user := models.User{
		Firstname: "Guest",
		Lastname:  "User",
		Email:     fmt.Sprintf("guest-%s@example.com", uuid.NewString()),
		RealUser:  false,
	}
	id, createErr := s.repo.CreateGuestUser(ctx, user)
	if createErr != nil {
		return nil, createErr
	}
	user.ID = id
	return &user, nil
}
