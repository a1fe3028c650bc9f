// Package unassign реализует HTTP-обработчик отвязки клубной карты.
package unassign

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gym-access-control/internal/http/response"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами на отвязку карт.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики отвязки карт.
type Service interface {
	Unassign(ctx context.Context, userID int) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отвязать карту пользователя
// @Description Отвязывает карту, если она есть. Отсутствие карты не ошибка.
// @Tags Cards
// @Accept json
// @Produce json
// @Param request body models.DummyUnassignCard true "Пользователь"
// @Success 200 {object} response.Response "Результат отвязки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /cards/unassign [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.card.unassign"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUnassignCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	hadCard, err := h.service.Unassign(r.Context(), req.UserID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Error("user not found", sl.UserID(req.UserID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to unassign card", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not unassign card"))
		return
	}

	log.Info("card unassign processed", sl.UserID(req.UserID), slog.Bool("had_card", hadCard))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"had_card": hadCard,
	}))
}
