// Package services содержит движок проверки входа — процедуру принятия
// решения, вызываемую турникетом.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/gym-access-control/internal/lib/dates"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/motivation"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Repository определяет методы хранилища, нужные движку проверки входа.
type Repository interface {
	// WithinTx выполняет fn в одной транзакции хранилища.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockUser сериализует операции над пользователем до конца транзакции.
	LockUser(ctx context.Context, id int) error
	// GetUserByID возвращает пользователя по ID.
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	// ListUserSubscriptions возвращает абонементы пользователя в порядке создания.
	ListUserSubscriptions(ctx context.Context, userID int) ([]*models.UserSubscription, error)
	// ListUserOneTimeEntries возвращает разовые входы пользователя в порядке создания.
	ListUserOneTimeEntries(ctx context.Context, userID int) ([]*models.UserOneTimeEntry, error)
	// MarkOneTimeEntryUsed необратимо списывает разовый вход.
	MarkOneTimeEntryUsed(ctx context.Context, id int) error
	// CountUnusedOneTimeEntries возвращает остаток неиспользованных входов.
	CountUnusedOneTimeEntries(ctx context.Context, userID int) (int, error)
	// CreateEntryHistory дописывает запись журнала посещений.
	CreateEntryHistory(ctx context.Context, h models.EntryHistory) (int, error)
	// GetCardByNumber возвращает карту по её номеру.
	GetCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error)
}

// Notifier публикует сообщение о результате проверки входа.
// Доставка best-effort: ошибка публикации не влияет на решение.
type Notifier interface {
	PublishEntryStatus(msg models.EntryStatusMessage) error
}

// EntryValidationService решает, может ли пользователь войти,
// списывает подходящее основание и фиксирует проход в журнале.
type EntryValidationService struct {
	repo   Repository
	notify Notifier
	picker *motivation.Picker
	log    *slog.Logger

	now func() time.Time
}

// NewEntryValidationService создаёт новый экземпляр EntryValidationService.
func NewEntryValidationService(repo Repository, notify Notifier, picker *motivation.Picker, log *slog.Logger) *EntryValidationService {
	return &EntryValidationService{
		repo:   repo,
		notify: notify,
		picker: picker,
		log:    log,
		now:    dates.Today,
	}
}

// CanEnter выполняет проверку входа для пользователя.
//
// Порядок строго приоритетный: сначала активный абонемент с датой
// окончания не раньше сегодняшней (запись в журнал, уведомление с датой
// окончания, биллинговый журнал не трогается), затем первый
// неиспользованный разовый вход (необратимое списание, запись в журнал,
// уведомление с остатком), иначе отказ без побочных эффектов.
//
// Неизвестный пользователь — ошибка ErrNotFound без уведомления.
// Во всех остальных исходах публикуется ровно одно уведомление и
// создаётся не более одной записи журнала посещений.
func (s *EntryValidationService) CanEnter(ctx context.Context, userID int) (*models.EntryValidationResult, error) {
	var result models.EntryValidationResult
	var msg models.EntryStatusMessage

	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockUser(ctx, userID); err != nil {
			return err
		}
		user, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		msg = models.EntryStatusMessage{
			UserID:    user.ID,
			Firstname: user.Firstname,
			Lastname:  user.Lastname,
			Text:      s.picker.Text(),
		}
		today := s.now()

		active, err := s.findActiveSubscription(ctx, userID, today)
		if err != nil {
			return err
		}
		if active != nil {
			if _, err := s.repo.CreateEntryHistory(ctx, models.EntryHistory{
				UserID:    userID,
				EntryType: models.EntryTypeSubscription,
			}); err != nil {
				return err
			}
			msg.Status = models.StatusOKSubscription
			msg.ExpiryDate = active.EndDate.Format("2006-01-02")
			result = models.EntryValidationResult{
				Allowed:      true,
				ConsumedType: models.EntryTypeSubscription,
			}
			return nil
		}

		unused, err := s.findUnusedOneTimeEntry(ctx, userID)
		if err != nil {
			return err
		}
		if unused != nil {
			if err := s.repo.MarkOneTimeEntryUsed(ctx, unused.ID); err != nil {
				return err
			}
			if _, err := s.repo.CreateEntryHistory(ctx, models.EntryHistory{
				UserID:    userID,
				EntryType: models.EntryTypeOneTimeEntry,
			}); err != nil {
				return err
			}
			remaining, err := s.repo.CountUnusedOneTimeEntries(ctx, userID)
			if err != nil {
				return err
			}
			msg.Status = models.StatusOKOneTimeEntry
			msg.RemainingEntries = &remaining
			result = models.EntryValidationResult{
				Allowed:      true,
				ConsumedType: models.EntryTypeOneTimeEntry,
			}
			return nil
		}

		msg.Status = models.StatusNoValidEntry
		result = models.EntryValidationResult{Allowed: false}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("entry validated",
		sl.UserID(userID),
		slog.String("status", msg.Status),
		slog.Bool("allowed", result.Allowed))

	// Уведомление уходит после фиксации транзакции: сбой публикации
	// не может откатить уже разрешённый вход.
	if err := s.notify.PublishEntryStatus(msg); err != nil {
		s.log.Warn("failed to publish entry status", sl.UserID(userID), sl.Err(err))
	}

	return &result, nil
}

// CanEnterByCard выполняет проверку входа по номеру карты.
// Незарегистрированная или неназначенная карта равносильна неизвестному
// пользователю: возвращается ErrNotFound, уведомление не публикуется.
func (s *EntryValidationService) CanEnterByCard(ctx context.Context, cardNumber string) (*models.EntryValidationResult, error) {
	card, err := s.repo.GetCardByNumber(ctx, cardNumber)
	if err != nil {
		return nil, err
	}
	if card.UserID == nil {
		return nil, storage.ErrNotFound
	}
	return s.CanEnter(ctx, *card.UserID)
}

// findActiveSubscription ищет первый активный абонемент, действующий
// в день today включительно.
func (s *EntryValidationService) findActiveSubscription(ctx context.Context, userID int, today time.Time) (*models.UserSubscription, error) {
	subs, err := s.repo.ListUserSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.IsActive && dates.UsableForEntryOn(sub.EndDate, today) {
			return sub, nil
		}
	}
	return nil, nil
}

// findUnusedOneTimeEntry ищет первый неиспользованный разовый вход
// в порядке покупки.
func (s *EntryValidationService) findUnusedOneTimeEntry(ctx context.Context, userID int) (*models.UserOneTimeEntry, error) {
	entries, err := s.repo.ListUserOneTimeEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsUsed {
			return e, nil
		}
	}
	return nil, nil
}
