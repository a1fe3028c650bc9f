package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

// GetPlan возвращает каталожный тариф по ID.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, plan_type, duration_months, price, is_custom
			  FROM plans
			  WHERE id = $1`
	p := &models.Plan{}
	row := s.conn(ctx).QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.PlanType, &p.DurationMonths, &p.Price, &p.IsCustom); err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListUserSubscriptions возвращает все абонементы пользователя в
// порядке создания. Фильтрация по активности и датам выполняется
// в бизнес-логике именованными сравнениями.
func (s *Storage) ListUserSubscriptions(ctx context.Context, userID int) ([]*models.UserSubscription, error) {
	const op = "storage.ListUserSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan_id, start_date, end_date, is_active
			  FROM user_subscriptions
			  WHERE user_id = $1
			  ORDER BY id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	var subs []*models.UserSubscription
	for rows.Next() {
		sub := &models.UserSubscription{}
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.PlanID,
			&sub.StartDate, &sub.EndDate, &sub.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// CreateUserSubscription вставляет новый абонемент и возвращает его ID.
func (s *Storage) CreateUserSubscription(ctx context.Context, sub models.UserSubscription) (int, error) {
	const op = "storage.CreateUserSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_subscriptions (user_id, plan_id, start_date, end_date, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.conn(ctx).QueryRowContext(ctx, query,
		sub.UserID, sub.PlanID, sub.StartDate, sub.EndDate, sub.IsActive).Scan(&newID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}

// UpdateSubscriptionEndDate сдвигает дату окончания абонемента.
// Запись не пересоздаётся: продление мутирует существующую строку.
func (s *Storage) UpdateSubscriptionEndDate(ctx context.Context, id int, endDate time.Time) error {
	const op = "storage.UpdateSubscriptionEndDate"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions SET end_date = $2 WHERE id = $1`
	result, err := s.conn(ctx).ExecContext(ctx, query, id, endDate)
	if err != nil {
		return wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// DeactivateUserSubscriptions снимает флаг активности со всех
// абонементов пользователя независимо от срока действия. Гарантирует
// не более одной активной записи перед созданием новой.
func (s *Storage) DeactivateUserSubscriptions(ctx context.Context, userID int) (int, error) {
	const op = "storage.DeactivateUserSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions SET is_active = false
			  WHERE user_id = $1 AND is_active = true`
	result, err := s.conn(ctx).ExecContext(ctx, query, userID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
