package routes

import (
	"net/http"

	"github.com/Dosada05/debate-draw/handlers"
	"github.com/Dosada05/debate-draw/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	// Limiter ограничивает админские изменения; nil отключает ограничение.
	Limiter *middleware.IPRateLimiter
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	drawHandler *handlers.DrawHandler,
	publicHandler *handlers.PublicDrawHandler,
	divisionHandler *handlers.DivisionHandler,
	webSocketHandler *handlers.WebSocketHandler,
	metricsHandler http.Handler,
) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler)
	}

	if webSocketHandler != nil {
		router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
	}

	router.Route("/public", func(r chi.Router) {
		r.Get("/rounds/{roundID}/draw", publicHandler.GetRoundDraw)
		r.Get("/tournaments/{tournamentID}/draws", publicHandler.ListTournamentDraws)
		r.Get("/tournaments/{tournamentID}/side-allocations", publicHandler.GetSideAllocations)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))
		r.Use(middleware.Authorize(middleware.RoleAdmin))

		r.Get("/tournaments/{tournamentID}/side-allocations", publicHandler.GetSideAllocations)

		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Get("/draw", drawHandler.GetDraw)
			r.Get("/matchups", drawHandler.GetMatchups)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(opts.Limiter))

				r.Post("/draw/create", drawHandler.CreateDraw)
				r.Post("/draw/confirm", drawHandler.ConfirmDraw)
				r.Post("/draw/release", drawHandler.ReleaseDraw)
				r.Post("/draw/unrelease", drawHandler.UnreleaseDraw)
				r.Post("/draw/regenerate", drawHandler.RegenerateDraw)
				r.Post("/start-time", drawHandler.SetStartTime)
				r.Post("/matchups", drawHandler.SaveMatchups)
				r.Post("/schedule", drawHandler.ApplySchedule)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.Limiter))

			r.Put("/divisions/{divisionID}/time-slot", divisionHandler.SetTimeSlot)
			r.Put("/divisions/{divisionID}/venue-group", divisionHandler.SetVenueGroup)
			r.Put("/teams/{teamID}/division", divisionHandler.SetTeamDivision)
		})
	})
}
