// Package guestpurchase реализует HTTP-обработчик анонимной покупки
// разовых входов по клубной карте.
package guestpurchase

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
	cardservices "github.com/magabrotheeeer/gym-access-control/internal/services/card"
	services "github.com/magabrotheeeer/gym-access-control/internal/services/onetimeentry"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами на гостевую покупку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики гостевой покупки.
type Service interface {
	PurchaseForGuest(ctx context.Context, req models.DummyGuestPurchase) (*services.PurchaseResult, error)
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
// @Summary Купить разовые входы для гостя
// @Description Привязывает карту к техническому пользователю и покупает для него входы.
// @Tags OneTimeEntries
// @Accept json
// @Produce json
// @Param request body models.DummyGuestPurchase true "Данные гостевой покупки"
// @Success 201 {object} response.Response "Входы куплены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Позиция не найдена"
// @Failure 409 {object} response.ErrorResponse "Карта занята другим пользователем"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /one-time-entries/guest-purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.onetimeentry.guestpurchase"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyGuestPurchase
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

	result, err := h.service.PurchaseForGuest(r.Context(), req)
	switch {
	case errors.Is(err, cardservices.ErrCardOwnedByAnother):
		log.Error("card owned by another user", slog.String("card_number", req.CardNumber))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("card is assigned to another user"))
		return
	case errors.Is(err, storage.ErrNotFound):
		log.Error("one-time entry not found", sl.Err(err))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("one-time entry not found"))
		return
	case err != nil:
		log.Error("failed to purchase for guest", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not purchase for guest"))
		return
	}

	log.Info("guest purchase processed", sl.UserID(result.UserID), slog.String("card_number", req.CardNumber))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(result))
}
