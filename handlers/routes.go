package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"summatube/api-gateway/internal/metrics"
)

// RegisterRoutes mounts every endpoint on app. rateLimit guards POST summarize;
// nil disables it.
func RegisterRoutes(app *fiber.App, h *ApplicationHandler, rateLimit fiber.Handler) {
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	summarize := []fiber.Handler{h.Summarize}
	if rateLimit != nil {
		summarize = append([]fiber.Handler{rateLimit}, summarize...)
	}

	for _, prefix := range []string{"", "/api"} {
		r := app.Group(prefix)

		r.Get("/summarize", h.SummarizeInfo)
		r.Post("/summarize", summarize...)

		r.Get("/check-transcript", h.CheckTranscriptGet)
		r.Post("/check-transcript", h.CheckTranscriptPost)

		if h.Auth != nil && h.Credits != nil {
			authGroup := r.Group("/auth")
			authGroup.Post("/signup", h.Signup)
			authGroup.Post("/login", h.Login)
			authGroup.Get("/me", h.Me)
			authGroup.Post("/logout", h.Logout)
		}
	}
}
