package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"collabcalendar/internal/delivery/http/controllers"
	"collabcalendar/internal/delivery/http/helpers"
	"collabcalendar/internal/delivery/http/middleware"
	"collabcalendar/internal/domain"
)

// RouterConfig collects what NewRouter needs beyond the controllers.
type RouterConfig struct {
	Verifier       domain.TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes, wrapped in
// CORS and request logging.
func NewRouter(inviteController *controllers.InviteController, authController *controllers.AuthController, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	optionalAuth := middleware.OptionalAuth(cfg.Verifier, cfg.Logger)

	// Calendar invites
	mux.HandleFunc("POST /calendars/{calendarID}/invites", requireAuth(inviteController.InviteMember))
	mux.HandleFunc("POST /calendars/{calendarID}/invites/resend", requireAuth(inviteController.ResendInvite))
	mux.HandleFunc("DELETE /calendars/{calendarID}/invites", requireAuth(inviteController.RevokeInvite))
	mux.HandleFunc("GET /calendars/{calendarID}/invites", requireAuth(inviteController.ListInvites))
	mux.HandleFunc("POST /invites/accept", requireAuth(inviteController.AcceptInvite))
	mux.HandleFunc("POST /invites/decline", optionalAuth(inviteController.DeclineInvite))

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(cfg.Logger, mux))
}
