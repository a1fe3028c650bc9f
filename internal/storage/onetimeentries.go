package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

// GetOneTimeEntry возвращает каталожную позицию разового входа по ID.
func (s *Storage) GetOneTimeEntry(ctx context.Context, id int) (*models.OneTimeEntry, error) {
	const op = "storage.GetOneTimeEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, entry_name, price
			  FROM one_time_entries
			  WHERE id = $1`
	e := &models.OneTimeEntry{}
	row := s.conn(ctx).QueryRowContext(ctx, query, id)
	if err := row.Scan(&e.ID, &e.EntryName, &e.Price); err != nil {
		return nil, wrapErr(op, err)
	}
	return e, nil
}

// ListUserOneTimeEntries возвращает купленные разовые входы
// пользователя в порядке создания: детерминированный выбор
// "первого неиспользованного" опирается на этот порядок.
func (s *Storage) ListUserOneTimeEntries(ctx context.Context, userID int) ([]*models.UserOneTimeEntry, error) {
	const op = "storage.ListUserOneTimeEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, one_time_entry_id, purchase_date, is_used, custom_price
			  FROM user_one_time_entries
			  WHERE user_id = $1
			  ORDER BY id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.UserOneTimeEntry
	for rows.Next() {
		e := &models.UserOneTimeEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.OneTimeEntryID,
			&e.PurchaseDate, &e.IsUsed, &e.CustomPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// MarkOneTimeEntryUsed необратимо помечает разовый вход использованным.
// Условие is_used = false в запросе не даёт списать один вход дважды:
// повторная попытка возвращает ErrNotFound.
func (s *Storage) MarkOneTimeEntryUsed(ctx context.Context, id int) error {
	const op = "storage.MarkOneTimeEntryUsed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_one_time_entries SET is_used = true
			  WHERE id = $1 AND is_used = false`
	result, err := s.conn(ctx).ExecContext(ctx, query, id)
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

// CountUnusedOneTimeEntries возвращает остаток неиспользованных
// разовых входов пользователя.
func (s *Storage) CountUnusedOneTimeEntries(ctx context.Context, userID int) (int, error) {
	const op = "storage.CountUnusedOneTimeEntries"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM user_one_time_entries
			  WHERE user_id = $1 AND is_used = false`
	var count int
	if err := s.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}

// CreateUserOneTimeEntry вставляет купленный разовый вход и возвращает его ID.
func (s *Storage) CreateUserOneTimeEntry(ctx context.Context, entry models.UserOneTimeEntry) (int, error) {
	const op = "storage.CreateUserOneTimeEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_one_time_entries (user_id, one_time_entry_id, purchase_date, is_used, custom_price)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.conn(ctx).QueryRowContext(ctx, query,
		entry.UserID, entry.OneTimeEntryID, entry.PurchaseDate,
		entry.IsUsed, entry.CustomPrice).Scan(&newID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}
