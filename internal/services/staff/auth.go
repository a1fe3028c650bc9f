// Package services реализует аутентификацию персонала клуба.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/gym-access-control/internal/lib/password"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// ErrInvalidCredentials возвращается при неверной паре логин-пароль.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Repository определяет методы хранилища для аутентификации.
type Repository interface {
	GetStaffByUsername(ctx context.Context, username string) (*models.Staff, error)
}

// TokenMaker выпускает JWT для сотрудника.
type TokenMaker interface {
	GenerateToken(username, role string) (string, error)
}

// AuthService проверяет учётные данные персонала и выдаёт токены.
type AuthService struct {
	repo  Repository
	maker TokenMaker
	log   *slog.Logger
}

// NewAuthService создаёт новый экземпляр AuthService.
func NewAuthService(repo Repository, maker TokenMaker, log *slog.Logger) *AuthService {
	return &AuthService{repo: repo, maker: maker, log: log}
}

// Login проверяет логин и пароль сотрудника и возвращает JWT.
// Неизвестный логин и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, req models.DummyStaffLogin) (string, error) {
	const op = "services.staff.Login"

	staff, err := s.repo.GetStaffByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	case err != nil:
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(req.Password, staff.PasswordHash); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.maker.GenerateToken(staff.Username, staff.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("staff logged in", slog.String("username", staff.Username), slog.String("role", staff.Role))
	return token, nil
}
