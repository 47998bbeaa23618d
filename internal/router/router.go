package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teahouse/internal/config"
	"teahouse/internal/handler"
	"teahouse/internal/middleware"
)

// UsersHandlers groups the handlers mounted under /api/v1.
type UsersHandlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

// NewHello wraps the raw kitchen server with recovery and request logging.
func NewHello() http.Handler {
	return middleware.Recovery(middleware.Logging(handler.Hello()))
}

func NewTeas(cfg *config.Config, teas *handler.TeaHandler) http.Handler {
	r := chi.NewRouter()
	metrics := middleware.NewMetrics("teas")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/metrics", metrics.Exposition().ServeHTTP)

	r.Route("/teas", func(t chi.Router) {
		t.Post("/", teas.Create)
		t.Get("/", teas.List)
		t.Get("/{id}", teas.Get)
		t.Put("/{id}", teas.Update)
		t.Delete("/{id}", teas.Delete)
	})

	return r
}

// NewUsersAPI mounts the auth backend. mediaRoot, when set, is served under
// /static for the local media host.
func NewUsersAPI(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h UsersHandlers, mediaRoot string) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)
	metrics := middleware.NewMetrics("users")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(metrics.Handler)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/metrics", metrics.Exposition().ServeHTTP)

	if mediaRoot != "" {
		r.With(middleware.StreamingTimeout(cfg.RequestTimeout)).Get("/static/*", handler.MediaFiles("/static/", mediaRoot).ServeHTTP)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Get("/healthcheck", h.Health.Check)

		api.Route("/users", func(users chi.Router) {
			users.Post("/register", h.Auth.Register)
			users.Post("/login", h.Auth.Login)
			users.Post("/refresh-token", h.Auth.RefreshToken)

			users.Group(func(private chi.Router) {
				private.Use(authMiddleware.RequireAuth)

				private.Post("/logout", h.Auth.Logout)
				private.Post("/change-password", h.Auth.ChangePassword)
				private.Get("/current-user", h.Auth.CurrentUser)
				private.Patch("/update-account", h.User.UpdateAccount)
				private.Patch("/avatar", h.User.UpdateAvatar)
				private.Patch("/cover-image", h.User.UpdateCoverImage)
				private.Get("/c/{username}", h.User.ChannelProfile)
				private.Post("/c/{username}/subscribe", h.User.Subscribe)
				private.Delete("/c/{username}/subscribe", h.User.Unsubscribe)
				private.Get("/history", h.User.WatchHistory)
				private.Post("/history/{videoId}", h.User.AddToWatchHistory)
			})
		})
	})

	return r
}

// NewWeb wraps the frontend pages with the same outer middleware as the APIs.
func NewWeb(pages http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)

	r.Mount("/", pages)

	return r
}
