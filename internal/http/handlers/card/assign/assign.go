// Package assign реализует HTTP-обработчик привязки клубной карты
// к пользователю.
package assign

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
	services "github.com/magabrotheeeer/gym-access-control/internal/services/card"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами на привязку карт.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики привязки карт.
type Service interface {
	Assign(ctx context.Context, req models.DummyAssignCard) error
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
// @Summary Привязать карту к пользователю
// @Description Привязывает карту, при необходимости регистрируя её. Карта другого пользователя — конфликт.
// @Tags Cards
// @Accept json
// @Produce json
// @Param request body models.DummyAssignCard true "Данные привязки"
// @Success 200 {object} response.Response "Карта привязана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Карта занята другим пользователем"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /cards/assign [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.card.assign"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAssignCard
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

	err := h.service.Assign(r.Context(), req)
	switch {
	case errors.Is(err, services.ErrCardOwnedByAnother):
		log.Error("card owned by another user", slog.String("card_number", req.CardNumber))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("card is assigned to another user"))
		return
	case errors.Is(err, storage.ErrNotFound):
		log.Error("user not found", sl.UserID(req.UserID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to assign card", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not assign card"))
		return
	}

	log.Info("card assigned", sl.UserID(req.UserID), slog.String("card_number", req.CardNumber))
	render.JSON(w, r, response.OK())
}
