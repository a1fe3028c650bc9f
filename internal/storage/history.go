package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

// CreateEntryHistory вставляет запись журнала посещений и возвращает её ID.
// Момент прохода ставится базой; журнал только дописывается.
func (s *Storage) CreateEntryHistory(ctx context.Context, h models.EntryHistory) (int, error) {
	const op = "storage.CreateEntryHistory"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO entry_history (user_id, entry_type)
			  VALUES ($1, $2)
			  RETURNING id`
	var newID int
	if err := s.conn(ctx).QueryRowContext(ctx, query, h.UserID, h.EntryType).Scan(&newID); err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}

// CreateTransactionHistory вставляет запись биллингового журнала
// и возвращает её ID. Журнал только дописывается.
func (s *Storage) CreateTransactionHistory(ctx context.Context, t models.TransactionHistory) (int, error) {
	const op = "storage.CreateTransactionHistory"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transaction_history
			      (user_id, amount, description, purchase_type, user_subscription_id, user_one_time_entry_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.conn(ctx).QueryRowContext(ctx, query,
		t.UserID, t.Amount, t.Description, t.PurchaseType,
		t.UserSubscriptionID, t.UserOneTimeEntryID).Scan(&newID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}
