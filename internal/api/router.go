package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/", apiHandler.RootHandler)
	r.Get("/health", apiHandler.HealthHandler)

	r.Route("/webhook", func(r chi.Router) {
		r.Get("/whatsapp", apiHandler.VerifyWebhookHandler)
		r.Post("/whatsapp", apiHandler.ReceiveWebhookHandler)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", apiHandler.RegisterHandler)
		r.Post("/users/unsubscribe/{whatsappNumber}", apiHandler.UnsubscribeHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", apiHandler.AdminLoginHandler)

			r.Group(func(r chi.Router) {
				r.Use(apiHandler.AdminAuthMiddleware)
				r.Post("/questions", apiHandler.AdminCreateQuestionHandler)
				r.Get("/questions", apiHandler.AdminListQuestionsHandler)
				r.Get("/users", apiHandler.AdminListUsersHandler)
			})
		})
	})

	return r
}
