// Package purchase реализует HTTP-обработчик покупки разовых входов
// для зарегистрированного пользователя.
package purchase

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
	services "github.com/magabrotheeeer/gym-access-control/internal/services/onetimeentry"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами на покупку разовых входов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики покупки разовых входов.
type Service interface {
	Purchase(ctx context.Context, req models.DummyPurchase) (*services.PurchaseResult, error)
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
// @Summary Купить разовые входы
// @Description Добавляет пользователю разовые входы и пишет биллинговый журнал.
// @Tags OneTimeEntries
// @Accept json
// @Produce json
// @Param request body models.DummyPurchase true "Данные покупки"
// @Success 201 {object} response.Response "Входы куплены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь или позиция не найдены"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /one-time-entries/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.onetimeentry.purchase"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPurchase
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

	result, err := h.service.Purchase(r.Context(), req)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Error("user or entry not found", sl.Err(err))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user or one-time entry not found"))
		return
	case err != nil:
		log.Error("failed to purchase one-time entries", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not purchase one-time entries"))
		return
	}

	log.Info("one-time entries purchased", sl.UserID(req.UserID), slog.Int("count", len(result.PurchasedIDs)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(result))
}
