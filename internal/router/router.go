package router

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/chat"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/itinerary"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	ChatHandler      chat.Handler
	ItineraryHandler itinerary.Handler
	// AuthMiddleware is applied to every /api/v1 route. Anonymous requests
	// must still pass.
	AuthMiddleware      func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler
	CORSOrigins         []string
}

// SetupRouter builds the API router. Server-wide middleware (request id,
// logging, recovery) is applied by the caller before mounting it.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitMiddleware != nil {
			r.Use(cfg.RateLimitMiddleware)
		}
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", cfg.ChatHandler.Chat)
			r.Get("/config", cfg.ChatHandler.GetConfig)
			r.Post("/itinerary/save", cfg.ItineraryHandler.SaveItinerary)
			r.Get("/itinerary/list/{session_id}", cfg.ItineraryHandler.ListItineraries)
		})
		r.Post("/itinerary/generate", cfg.ItineraryHandler.GenerateItinerary)
	})

	return r
}
