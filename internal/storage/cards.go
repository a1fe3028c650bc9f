package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

// GetCardByNumber возвращает карту по номеру.
func (s *Storage) GetCardByNumber(ctx context.Context, cardNumber string) (*models.Card, error) {
	const op = "storage.GetCardByNumber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, card_number, lost, card_type, user_id
			  FROM cards
			  WHERE card_number = $1`
	return s.scanCard(s.conn(ctx).QueryRowContext(ctx, query, cardNumber), op)
}

// GetCardByNumberForUpdate возвращает карту по номеру и блокирует её
// строку до конца транзакции. Используется при привязке, чтобы два
// пользователя не заняли одну карту одновременно.
func (s *Storage) GetCardByNumberForUpdate(ctx context.Context, cardNumber string) (*models.Card, error) {
	const op = "storage.GetCardByNumberForUpdate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, card_number, lost, card_type, user_id
			  FROM cards
			  WHERE card_number = $1
			  FOR UPDATE`
	return s.scanCard(s.conn(ctx).QueryRowContext(ctx, query, cardNumber), op)
}

// GetCardByUserID возвращает карту, привязанную к пользователю.
func (s *Storage) GetCardByUserID(ctx context.Context, userID int) (*models.Card, error) {
	const op = "storage.GetCardByUserID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, card_number, lost, card_type, user_id
			  FROM cards
			  WHERE user_id = $1`
	return s.scanCard(s.conn(ctx).QueryRowContext(ctx, query, userID), op)
}

// CreateCard вставляет новую карту без владельца и возвращает её ID.
func (s *Storage) CreateCard(ctx context.Context, card models.Card) (int, error) {
	const op = "storage.CreateCard"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO cards (card_number)
			  VALUES ($1)
			  RETURNING id`
	var newID int
	if err := s.conn(ctx).QueryRowContext(ctx, query, card.CardNumber).Scan(&newID); err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}

// AssignCardToUser записывает владельца карты. Уникальный индекс на
// user_id не даст пользователю иметь две карты: нарушение возвращается
// как ErrAlreadyExists.
func (s *Storage) AssignCardToUser(ctx context.Context, cardID, userID int) error {
	const op = "storage.AssignCardToUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE cards SET user_id = $2 WHERE id = $1`
	result, err := s.conn(ctx).ExecContext(ctx, query, cardID, userID)
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

// UnassignCardFromUser снимает привязку карты пользователя.
// Возвращает число затронутых строк (0 — карты не было).
func (s *Storage) UnassignCardFromUser(ctx context.Context, userID int) (int, error) {
	const op = "storage.UnassignCardFromUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE cards SET user_id = NULL WHERE user_id = $1`
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

func (s *Storage) scanCard(row interface{ Scan(dest ...any) error }, op string) (*models.Card, error) {
	c := &models.Card{}
	if err := row.Scan(&c.ID, &c.CardNumber, &c.Lost, &c.CardType, &c.UserID); err != nil {
		return nil, wrapErr(op, err)
	}
	return c, nil
}
