package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/maapaap/api/internal/application/auth"
	otpapp "github.com/maapaap/api/internal/application/otp"
	"github.com/maapaap/api/internal/config"
	"github.com/maapaap/api/internal/transport/http/handler"
	appmiddleware "github.com/maapaap/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	otpStore := otpapp.NewStore(deps.OTPs, deps.OTPCache, cfg.OTPLength, cfg.OTPTTL)
	authSvc := auth.NewService(auth.ServiceDeps{
		OTPs:       otpStore,
		Users:      deps.Users,
		Sessions:   deps.Sessions,
		Mailer:     deps.Mailer,
		SMSSender:  deps.SMSSender,
		Issuer:     deps.JWTProvider,
		SessionTTL: cfg.SessionTTL,
	})

	authMw := appmiddleware.Auth(deps.JWTProvider, authSvc)

	// 5 requests/second, burst of 10 — applied to the public OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler(deps.Pinger)
	authH := handler.NewAuthHandler(authSvc)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeNotFound(w, req)
	})

	r.Get("/health", healthH.Check)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/send-otp", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/me", authH.Me)
			r.Post("/logout", authH.Logout)
		})
	})

	return r
}

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(handler.Envelope{
		Success: false,
		Error:   fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path),
	})
}
