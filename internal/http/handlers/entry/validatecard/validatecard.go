// Package validatecard реализует HTTP-обработчик проверки входа по
// номеру клубной карты.
package validatecard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gym-access-control/internal/http/response"
	"github.com/magabrotheeeer/gym-access-control/internal/lib/sl"
	"github.com/magabrotheeeer/gym-access-control/internal/models"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// Handler управляет HTTP-запросами проверки входа по карте.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс движка проверки входа по карте.
type Service interface {
	CanEnterByCard(ctx context.Context, cardNumber string) (*models.EntryValidationResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверить вход по номеру карты
// @Description Находит владельца карты и решает, пустить ли его.
// @Tags Entry
// @Produce json
// @Param cardNumber path string true "Номер карты"
// @Success 200 {object} response.Response "Вход разрешён"
// @Failure 403 {object} response.Response "Входа нет"
// @Failure 404 {object} response.ErrorResponse "Карта не найдена или не привязана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entry/validate-card/{cardNumber} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.validatecard"
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

	result, err := h.service.CanEnterByCard(r.Context(), cardNumber)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Error("card not resolvable", slog.String("card_number", cardNumber))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("card not found or not assigned"))
		return
	case err != nil:
		log.Error("failed to validate entry", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not validate entry"))
		return
	}

	if !result.Allowed {
		log.Info("entry denied", slog.String("card_number", cardNumber))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.OKWithData(result))
		return
	}

	log.Info("entry allowed", slog.String("card_number", cardNumber))
	render.JSON(w, r, response.OKWithData(result))
}
