// Package validate реализует HTTP-обработчик проверки входа по ID
// пользователя. Это горячий путь турникета: обработчик возвращает
// решение, а списание и журналирование выполняет сервис.
package validate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-access-control/internal/http/response"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами проверки входа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс движка проверки входа.
type Service interface {
	CanEnter(ctx context.Context, userID int) (*models.EntryValidationResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверить вход по ID пользователя
// @Description Решает, пустить ли пользователя, и списывает подходящее основание входа.
// @Tags Entry
// @Produce json
// @Param userID path int true "ID пользователя"
// @Success 200 {object} response.Response "Вход разрешён"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.Response "Входа нет"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entry/validate/{userID} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.validate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	result, err := h.service.CanEnter(r.Context(), userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Error("user not found", sl.UserID(userID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to validate entry", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not validate entry"))
		return
	}

	if !result.Allowed {
		log.Info("entry denied", sl.UserID(userID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.OKWithData(result))
		return
	}

	log.Info("entry allowed", sl.UserID(userID), slog.String("consumed", result.ConsumedType))
	render.JSON(w, r, response.OKWithData(result))
}
