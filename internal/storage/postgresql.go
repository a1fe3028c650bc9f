// Package storage реализует хранилище данных на основе PostgreSQL
// для системы контроля доступа в зал: пользователи, карты, абонементы,
// разовые входы, журналы посещений и транзакций.
//
// Движки проверки входа и жизненного цикла абонементов выполняют свои
// последовательности чтение-решение-запись внутри WithinTx; сериализация
// конкурирующих операций для одного пользователя достигается блокировкой
// его строки (SELECT ... FOR UPDATE) в начале транзакции. Уникальные
// индексы на email, номер карты и владельца карты служат страховкой
// на уровне базы.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища, различимые на границе HTTP.
var (
	// ErrNotFound запись с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушена уникальность (email, номер карты, владелец карты).
	ErrAlreadyExists = errors.New("already exists")
)

// uniqueViolation код ошибки PostgreSQL для нарушения уникального индекса.
const uniqueViolation = "23505"

// dbtx объединяет *sql.DB и *sql.Tx: методы хранилища выполняются
// либо на соединении, либо внутри открытой транзакции.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}

// txKey ключ контекста, переносящий открытую транзакцию.
type txKey struct{}

// WithinTx выполняет fn внутри одной транзакции: все методы хранилища,
// вызванные с производным контекстом, попадают в неё. Ошибка fn
// откатывает транзакцию целиком — частичные записи невозможны.
// Вложенный вызов присоединяется к уже открытой транзакции.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "storage.WithinTx"

	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%s: rollback failed: %v: %w", op, rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// conn возвращает транзакцию из контекста, если она открыта,
// иначе — обычное соединение.
func (s *Storage) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.DB
}

// wrapErr приводит ошибки драйвера к ошибкам уровня хранилища.
func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}
