// Package create реализует HTTP-обработчик продажи и продления абонементов.
//
// Handler принимает JSON-запрос с данными покупки, валидирует их,
// вызывает бизнес-логику жизненного цикла абонементов и возвращает
// итоговые границы действия в JSON-формате.
package create

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
	services "github.com/magabrotheeeer/gym-access-control/internal/services/subscription"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами на продажу и продление абонементов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики жизненного цикла абонементов.
type Service interface {
	CreateOrRenew(ctx context.Context, req models.DummySubscription) (*models.UserSubscription, error)
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
// @Summary Продать или продлить абонемент
// @Description Продлевает действующий абонемент или открывает новый период с сегодняшнего дня.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body models.DummySubscription true "Данные покупки"
// @Success 201 {object} response.Response "Абонемент оформлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или индивидуальные поля"
// @Failure 404 {object} response.ErrorResponse "Пользователь или тариф не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscription
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.CreateOrRenew(r.Context(), req)
	switch {
	case errors.Is(err, services.ErrCustomFieldsRequired),
		errors.Is(err, services.ErrCustomFieldsForbidden),
		errors.Is(err, services.ErrInvalidCustomEndDate):
		log.Error("custom fields rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(errors.Unwrap(err).Error()))
		return
	case errors.Is(err, storage.ErrNotFound):
		log.Error("user or plan not found", sl.Err(err))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user or plan not found"))
		return
	case err != nil:
		log.Error("failed to process subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process subscription"))
		return
	}

	log.Info("subscription processed", slog.Int("id", sub.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":         sub.ID,
		"start_date": sub.StartDate.Format("2006-01-02"),
		"end_date":   sub.EndDate.Format("2006-01-02"),
	}))
}
