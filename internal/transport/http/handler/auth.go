package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maapaap/api/internal/application/auth"
	"github.com/maapaap/api/internal/domain"
	"github.com/maapaap/api/internal/pkg/validate"
	"github.com/maapaap/api/internal/transport/http/middleware"
)

// AuthHandler handles OTP login, identity, and logout endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type sendOTPRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Type       string `json:"type" validate:"required"`
}

type verifyOTPRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	OTP        string `json:"otp" validate:"required"`
	Type       string `json:"type" validate:"required"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Identifier and type are required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Identifier and type are required")
		return
	}
	kind := domain.IdentifierKind(req.Type)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Type must be email or phone")
		return
	}

	minutes, err := h.svc.SendOTP(r.Context(), req.Identifier, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"identifier": req.Identifier,
		"expiresIn":  minutes,
	}, "OTP sent successfully")
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Identifier, OTP, and type are required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Identifier, OTP, and type are required")
		return
	}
	kind := domain.IdentifierKind(req.Type)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Type must be email or phone")
		return
	}

	user, token, err := h.svc.VerifyOTP(r.Context(), req.Identifier, req.OTP, kind)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired OTP")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"user":  toUserPayload(user),
		"token": token,
	}, "OTP verified successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	user, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	payload := toUserPayload(user)
	payload.CreatedAt = &user.CreatedAt
	writeData(w, http.StatusOK, payload, "")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	token := middleware.BearerToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "No token provided")
		return
	}
	if err := h.svc.Logout(r.Context(), claims.UserID, token); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Logged out successfully"})
}
