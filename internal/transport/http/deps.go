package http

import (
	"github.com/maapaap/api/internal/application/auth"
	otpapp "github.com/maapaap/api/internal/application/otp"
	jwtinfra "github.com/maapaap/api/internal/infrastructure/jwt"
	"github.com/maapaap/api/internal/infrastructure/smtp"
	"github.com/maapaap/api/internal/infrastructure/sns"
	"github.com/maapaap/api/internal/transport/http/handler"
)

// Deps holds all infrastructure dependencies for the router. Stores are the
// application-layer interfaces, so tests can stand in memory-backed fakes.
type Deps struct {
	Users       auth.UserStore
	Sessions    auth.SessionStore
	OTPs        otpapp.DurableStore
	OTPCache    otpapp.Cache
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
	Pinger      handler.Pinger
}
