// Package services реализует привязку клубных карт к пользователям
// и определение статуса карты.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// ErrCardOwnedByAnother возвращается при попытке привязать карту,
// уже закреплённую за другим пользователем.
var ErrCardOwnedByAnother = errors.New("card is assigned to another user")

// Repository определяет методы хранилища для работы с картами.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, id int) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error)
	GetCardByNumberForUpdate(ctx context.Context, cardNumber string) (*models.Card, error)
	GetCardByUserID(ctx context.Context, userID int) (*models.Card, error)
	CreateCard(ctx context.Context, card models.Card) (int, error)
	AssignCardToUser(ctx context.Context, cardID, userID int) error
	UnassignCardFromUser(ctx context.Context, userID int) (int, error)
}

// CardCache кэширует результат поиска карты по номеру; запись
// инвалидируется при каждой смене владельца.
type CardCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

const cardCacheTTL = 5 * time.Minute

// CardService управляет привязкой карт.
type CardService struct {
	repo  Repository
	cache CardCache
	log   *slog.Logger
}

// NewCardService создаёт новый экземпляр CardService.
func NewCardService(repo Repository, cache CardCache, log *slog.Logger) *CardService {
	return &CardService{repo: repo, cache: cache, log: log}
}

// Assign привязывает карту к пользователю.
//
// Неизвестная карта регистрируется на лету. Если карта закреплена за
// другим пользователем, возвращается ErrCardOwnedByAnother. Повторная
// привязка своей же карты идемпотентна. Прежняя карта пользователя,
// если была, отвязывается в той же транзакции: у пользователя не
// бывает двух карт одновременно.
func (s *CardService) Assign(ctx context.Context, req models.DummyAssignCard) error {
	const op = "services.card.Assign"

	var previousNumber string
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockUser(ctx, req.UserID); err != nil {
			return err
		}
		if _, err := s.repo.GetUserByID(ctx, req.UserID); err != nil {
			return err
		}

		card, err := s.repo.GetCardByNumberForUpdate(ctx, req.CardNumber)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			id, err := s.repo.CreateCard(ctx, models.Card{CardNumber: req.CardNumber})
			if err != nil {
				return err
			}
			card = &models.Card{ID: id, CardNumber: req.CardNumber}
		case err != nil:
			return err
		}

		if card.UserID != nil {
			if *card.UserID == req.UserID {
				return nil
			}
			return ErrCardOwnedByAnother
		}

		previous, err := s.repo.GetCardByUserID(ctx, req.UserID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return err
		default:
			previousNumber = previous.CardNumber
			if _, err := s.repo.UnassignCardFromUser(ctx, req.UserID); err != nil {
				return err
			}
		}
		return s.repo.AssignCardToUser(ctx, card.ID, req.UserID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, cardCacheKey(req.CardNumber)); err != nil {
		s.log.Warn("card cache invalidation failed", sl.Err(err))
	}
	// Прежняя карта перестала быть привязанной, её кэшированный
	// статус больше не верен.
	if previousNumber != "" {
		if err := s.cache.Invalidate(ctx, cardCacheKey(previousNumber)); err != nil {
			s.log.Warn("card cache invalidation failed", sl.Err(err))
		}
	}

	s.log.Info("card assigned", sl.UserID(req.UserID), slog.String("card_number", req.CardNumber))
	return nil
}

// Unassign отвязывает карту пользователя, если она есть.
// Возвращает номер отвязанной карты и признак, была ли карта.
func (s *CardService) Unassign(ctx context.Context, userID int) (bool, error) {
	const op = "services.card.Unassign"

	var hadCard bool
	var cardNumber string
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
			return err
		}
		card, err := s.repo.GetCardByUserID(ctx, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		cardNumber = card.CardNumber
		affected, err := s.repo.UnassignCardFromUser(ctx, userID)
		if err != nil {
			return err
		}
		hadCard = affected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if hadCard {
		if err := s.cache.Invalidate(ctx, cardCacheKey(cardNumber)); err != nil {
			s.log.Warn("card cache invalidation failed", sl.Err(err))
		}
		s.log.Info("card unassigned", sl.UserID(userID), slog.String("card_number", cardNumber))
	}
	return hadCard, nil
}

// Resolve определяет статус карты по её номеру. Результат читается
// сквозь кэш: привязка меняется редко и инвалидируется при изменении.
func (s *CardService) Resolve(ctx context.Context, cardNumber string) (*models.CardResolution, error) {
	const op = "services.card.Resolve"
	key := cardCacheKey(cardNumber)

	var cached models.CardResolution
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("card cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	var res models.CardResolution
	card, err := s.repo.GetCardByNumber(ctx, cardNumber)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		res = models.CardResolution{Status: models.CardStatusNotRegistered}
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case card.UserID == nil:
		res = models.CardResolution{Status: models.CardStatusUnassigned}
	default:
		res = models.CardResolution{Status: models.CardStatusAssigned, UserID: card.UserID}
	}

	// NOT_REGISTERED не кэшируется: карта может быть заведена сразу
	// после первого прикладывания.
	if res.Status != models.CardStatusNotRegistered {
		if err := s.cache.Set(ctx, key, res, cardCacheTTL); err != nil {
			s.log.Warn("card cache write failed", sl.Err(err))
		}
	}
	return &res, nil
}

func cardCacheKey(cardNumber string) string {
	return "card:" + cardNumber
}
