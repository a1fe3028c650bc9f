package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, firstname, lastname, email, real_user, created_at
			  FROM users
			  WHERE id = $1`
	u := &models.User{}
	row := s.conn(ctx).QueryRowContext(ctx, query, id)
	if err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email,
		&u.RealUser, &u.CreatedAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// LockUser блокирует строку пользователя до конца транзакции,
// сериализуя конкурирующие операции над его абонементами и входами.
// Возвращает ErrNotFound, если пользователь отсутствует.
func (s *Storage) LockUser(ctx context.Context, id int) error {
	const op = "storage.LockUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id FROM users WHERE id = $1 FOR UPDATE`
	var locked int
	if err := s.conn(ctx).QueryRowContext(ctx, query, id).Scan(&locked); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// CreateGuestUser вставляет синтетического "гостевого" пользователя
// для анонимной продажи разовых входов и возвращает его ID.
func (s *Storage) CreateGuestUser(ctx context.Context, user models.User) (int, error) {
	const op = "storage.CreateGuestUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (firstname, lastname, email, real_user)
			  VALUES ($1, $2, $3, false)
			  RETURNING id`
	var newID int
	err := s.conn(ctx).QueryRowContext(ctx, query,
		user.Firstname, user.Lastname, user.Email).Scan(&newID)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return newID, nil
}

// FindFreeGuestUser возвращает гостевого пользователя без
// неиспользованных разовых входов. Строка блокируется до конца
// транзакции, чтобы два одновременных гостевых заказа не заняли
// одну и ту же учётную запись. Возвращает ErrNotFound, если
// свободных гостей нет.
func (s *Storage) FindFreeGuestUser(ctx context.Context) (*models.User, error) {
	const op = "storage.FindFreeGuestUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.firstname, u.lastname, u.email, u.real_user, u.created_at
			  FROM users u
			  WHERE u.real_user = false
			    AND NOT EXISTS (
			        SELECT 1 FROM user_one_time_entries e
			        WHERE e.user_id = u.id AND e.is_used = false
			    )
			  ORDER BY u.id
			  LIMIT 1
			  FOR UPDATE OF u SKIP LOCKED`
	u := &models.User{}
	row := s.conn(ctx).QueryRowContext(ctx, query)
	if err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email,
		&u.RealUser, &u.CreatedAt); err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetStaffByUsername возвращает сотрудника по логину.
func (s *Storage) GetStaffByUsername(ctx context.Context, username string) (*models.Staff, error) {
	const op = "storage.GetStaffByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, password_hash, role
			  FROM staff
			  WHERE username = $1`
	st := &models.Staff{}
	row := s.conn(ctx).QueryRowContext(ctx, query, username)
	if err := row.Scan(&st.ID, &st.Username, &st.PasswordHash, &st.Role); err != nil {
		return nil, wrapErr(op, err)
	}
	return st, nil
}
