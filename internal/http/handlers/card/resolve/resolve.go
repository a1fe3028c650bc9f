// Package resolve реализует HTTP-обработчик определения статуса карты.
// По статусу турникет решает, предложить регистрацию, привязку или
// сразу перейти к проверке входа.
package resolve

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-access-control/internal/http/response"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
)

// Handler управляет HTTP-запросами определения статуса карты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс определения статуса карты.
type Service interface {
	Resolve(ctx context.Context, cardNumber string) (*models.CardResolution, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Определить статус карты
// @Description Возвращает NOT_REGISTERED, UNASSIGNED или ASSIGNED с владельцем.
// @Tags Cards
// @Produce json
// @Param cardNumber path string true "Номер карты"
// @Success 200 {object} response.Response "Статус карты"
// @Failure 400 {object} response.ErrorResponse "Пустой номер карты"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /cards/{cardNumber} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.card.resolve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cardNumber := chi.URLParam(r, "cardNumber")
	if cardNumber == "" {
		log.Error("empty card number")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid card number"))
		return
	}

	res, err := h.service.Resolve(r.Context(), cardNumber)
	if err != nil {
		log.Error("failed to resolve card", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not resolve card"))
		return
	}

	log.Info("card resolved", slog.String("card_number", cardNumber), slog.String("status", res.Status))
	render.JSON(w, r, response.OKWithData(res))
}
