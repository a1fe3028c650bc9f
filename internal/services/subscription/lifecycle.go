// Package services реализует жизненный цикл абонементов: покупка нового
// и продление действующего.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/gym-access-control/internal/lib/dates"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

var (
	// ErrCustomFieldsRequired возвращается, когда для индивидуального
	// тарифа не заданы дата окончания и цена.
	ErrCustomFieldsRequired = errors.New("custom plan requires custom end date and custom price")
	// ErrCustomFieldsForbidden возвращается, когда индивидуальные поля
	// заданы для обычного тарифа.
	ErrCustomFieldsForbidden = errors.New("custom fields are allowed only for a custom plan")
	// ErrInvalidCustomEndDate возвращается при непарсящейся дате.
	ErrInvalidCustomEndDate = errors.New("invalid custom end date")
)

// Repository определяет методы хранилища для жизненного цикла абонементов.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, id int) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
	ListUserSubscriptions(ctx context.Context, userID int) ([]*models.UserSubscription, error)
	CreateUserSubscription(ctx context.Context, sub models.UserSubscription) (int, error)
	UpdateSubscriptionEndDate(ctx context.Context, id int, endDate time.Time) error
	DeactivateUserSubscriptions(ctx context.Context, userID int) (int, error)
	CreateTransactionHistory(ctx context.Context, t models.TransactionHistory) (int, error)
}

// PlanCache кэширует тарифы, которые меняются редко.
type PlanCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

const planCacheTTL = 10 * time.Minute

// LifecycleService управляет покупкой и продлением абонементов.
type LifecycleService struct {
	repo  Repository
	cache PlanCache
	log   *slog.Logger

	now func() time.Time
}

// NewLifecycleService создаёт новый экземпляр LifecycleService.
func NewLifecycleService(repo Repository, cache PlanCache, log *slog.Logger) *LifecycleService {
	return &LifecycleService{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   dates.Today,
	}
}

// CreateOrRenew оформляет абонемент для пользователя.
//
// Если у пользователя есть активный абонемент, действующий строго
// позже сегодняшнего дня, его дата окончания продлевается на месте:
// на срок тарифа либо до индивидуальной даты. Иначе все активные
// абонементы деактивируются и создаётся новый, действующий с сегодня.
// В обоих случаях пишется ровно одна запись биллингового журнала.
//
// Индивидуальный тариф требует и дату окончания, и цену; для обычного
// тарифа оба поля запрещены. Проверка выполняется до любых записей.
func (s *LifecycleService) CreateOrRenew(ctx context.Context, req models.DummySubscription) (*models.UserSubscription, error) {
	const op = "services.subscription.CreateOrRenew"

	plan, err := s.getPlan(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var customEnd *time.Time
	if req.CustomEndDate != "" {
		parsed, err := time.Parse(dates.Layout, req.CustomEndDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCustomEndDate)
		}
		parsed = dates.Truncate(parsed)
		customEnd = &parsed
	}
	if plan.IsCustom {
		if customEnd == nil || req.CustomPrice == nil {
			return nil, fmt.Errorf("%s: %w", op, ErrCustomFieldsRequired)
		}
	} else if customEnd != nil || req.CustomPrice != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrCustomFieldsForbidden)
	}

	amount := plan.Price
	if req.CustomPrice != nil {
		amount = *req.CustomPrice
	}

	var result *models.UserSubscription
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockUser(ctx, req.UserID); err != nil {
			return err
		}
		if _, err := s.repo.GetUserByID(ctx, req.UserID); err != nil {
			return err
		}
		today := s.now()

		current, err := s.findExtendable(ctx, req.UserID, today)
		if err != nil {
			return err
		}

		var description string
		if current != nil {
			var newEnd time.Time
			if customEnd != nil {
				newEnd = *customEnd
				description = fmt.Sprintf("Manual validity override until %s", newEnd.Format("2006-01-02"))
			} else {
				newEnd = dates.AddMonths(current.EndDate, plan.DurationMonths)
				description = fmt.Sprintf("Extension by %d months", plan.DurationMonths)
			}
			if err := s.repo.UpdateSubscriptionEndDate(ctx, current.ID, newEnd); err != nil {
				return err
			}
			current.EndDate = newEnd
			result = current
		} else {
			if _, err := s.repo.DeactivateUserSubscriptions(ctx, req.UserID); err != nil {
				return err
			}
			var newEnd time.Time
			if customEnd != nil {
				newEnd = *customEnd
				description = fmt.Sprintf("Manual validity override until %s", newEnd.Format("2006-01-02"))
			} else {
				newEnd = dates.AddMonths(today, plan.DurationMonths)
				description = fmt.Sprintf("Purchase of a %d-month subscription", plan.DurationMonths)
			}
			sub := models.UserSubscription{
				UserID:    req.UserID,
				PlanID:    plan.ID,
				StartDate: today,
				EndDate:   newEnd,
				IsActive:  true,
			}
			id, err := s.repo.CreateUserSubscription(ctx, sub)
			if err != nil {
				return err
			}
			sub.ID = id
			result = &sub
		}

		_, err = s.repo.CreateTransactionHistory(ctx, models.TransactionHistory{
			UserID:             req.UserID,
			Amount:             amount,
			Description:        description,
			PurchaseType:       "Subscription",
			UserSubscriptionID: &result.ID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription processed",
		sl.UserID(req.UserID),
		slog.Int("plan_id", plan.ID),
		slog.String("valid_until", result.EndDate.Format("2006-01-02")))

	return result, nil
}

// getPlan достаёт тариф из кэша, при промахе читает из хранилища.
func (s *LifecycleService) getPlan(ctx context.Context, planID int) (*models.Plan, error) {
	key := fmt.Sprintf("plan:%d", planID)

	var plan models.Plan
	found, err := s.cache.Get(ctx, key, &plan)
	if err != nil {
		s.log.Warn("plan cache read failed", sl.Err(err))
	}
	if found {
		return &plan, nil
	}

	fromDb, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, fromDb, planCacheTTL); err != nil {
		s.log.Warn("plan cache write failed", sl.Err(err))
	}
	return fromDb, nil
}

// findExtendable ищет активный абонемент, который ещё можно продлить,
// то есть действующий строго позже дня today.
func (s *LifecycleService) findExtendable(ctx context.Context, userID int, today time.Time) (*models.UserSubscription, error) {
	subs, err := s.repo.ListUserSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.IsActive && dates.ExtendableOn(sub.EndDate, today) {
			return sub, nil
		}
	}
	return nil, nil
}
