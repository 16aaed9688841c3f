package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ticklerhq/tickler-api/internal/api"
	apiMiddleware "github.com/ticklerhq/tickler-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	reminderHandler := api.NewReminderHandler(app.reminderService, app.logger)
	callbackHandler := api.NewCallbackHandler(app.reminderService, app.tokenSigner, app.logger)
	subscriptionHandler := api.NewSubscriptionHandler(app.subscriptionStore, app.logger)
	notificationHandler := api.NewNotificationHandler(
		app.dispatcher,
		app.config.Notify.FireSecret,
		app.logger,
	)
	taskEventHandler := api.NewTaskEventHandler(
		app.eventEmitter,
		app.config.Notify.FireSecret,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)

		// Token-authenticated callback from notification action buttons
		r.Get("/reminders/callback", callbackHandler.Handle)

		// Machine-to-machine endpoints (shared secret)
		r.Post("/notifications/fire", notificationHandler.Fire)
		r.Post("/events/task", taskEventHandler.Handle)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/reminders", reminderHandler.Create)
			r.Delete("/reminders/{id}", reminderHandler.Dismiss)

			r.Post("/notifications/subscriptions", subscriptionHandler.Subscribe)
			r.Delete("/notifications/subscriptions", subscriptionHandler.Unsubscribe)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
