// Package gymaccesscontrol предоставляет маршруты для основного приложения.
package gymaccesscontrol

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/card/assign"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/card/resolve"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/card/unassign"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/entry/validate"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/entry/validatecard"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/health"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/onetimeentry/guestpurchase"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/onetimeentry/purchase"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/staff/login"
	"github.com/magabrotheeeer/gym-access-control/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/gym-access-control/internal/http/middlewarectx"
	cardservice "github.com/magabrotheeeer/gym-access-control/internal/services/card"
	entryservice "github.com/magabrotheeeer/gym-access-control/internal/services/entry"
	purchaseservice "github.com/magabrotheeeer/gym-access-control/internal/services/onetimeentry"
	staffservice "github.com/magabrotheeeer/gym-access-control/internal/services/staff"
	subservice "github.com/magabrotheeeer/gym-access-control/internal/services/subscription"
)

// Services собирает бизнес-сервисы, которые обслуживают маршруты.
type Services struct {
	Entry        *entryservice.EntryValidationService
	Subscription *subservice.LifecycleService
	Card         *cardservice.CardService
	Purchase     *purchaseservice.PurchaseService
	Auth         *staffservice.AuthService
}

// RegisterRoutes регистрирует все маршруты приложения.
//
// Маршруты турникета открыты, но ограничены по частоте. Кассовые и
// административные операции доступны только персоналу с JWT.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svcs Services, tokenParser middlewarectx.TokenParser) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	turnstileLimiter := rate.NewLimiter(10, 30)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/login", login.New(logger, svcs.Auth).ServeHTTP)

		// Маршруты турникета
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(turnstileLimiter, logger))
			r.Post("/entry/validate/{userID}", validate.New(logger, svcs.Entry).ServeHTTP)
			r.Post("/entry/validate-card/{cardNumber}", validatecard.New(logger, svcs.Entry).ServeHTTP)
			r.Get("/cards/{cardNumber}", resolve.New(logger, svcs.Card).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenParser, logger))
			r.Post("/subscriptions", create.New(logger, svcs.Subscription).ServeHTTP)
			r.Post("/cards/assign", assign.New(logger, svcs.Card).ServeHTTP)
			r.Post("/cards/unassign", unassign.New(logger, svcs.Card).ServeHTTP)
			r.Post("/one-time-entries/purchase", purchase.New(logger, svcs.Purchase).ServeHTTP)
			r.Post("/one-time-entries/guest-purchase", guestpurchase.New(logger, svcs.Purchase).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
